package generator

import (
	"context"
	"fmt"
	"strings"
)

type messagesRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type messagesResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (c *Client) anthropic(ctx context.Context, prompt string) (string, error) {
	req := messagesRequest{
		Model:       c.config.Model,
		System:      systemPrompt,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.temperature(),
	}
	headers := map[string]string{
		"anthropic-version": AnthropicVersion,
	}
	if c.config.APIKey != "" {
		headers["x-api-key"] = c.config.APIKey
	}

	var resp messagesResponse
	if err := c.doJSON(ctx, "/v1/messages", headers, req, &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", &ParseError{Provider: c.config.Name, Cause: fmt.Errorf("response has no text content")}
	}
	return b.String(), nil
}
