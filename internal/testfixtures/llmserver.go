package testfixtures

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// ModelResponse is one canned reply of a ModelServer.
type ModelResponse struct {
	StatusCode int
	Body       any
	Delay      time.Duration
	Headers    map[string]string
}

// ModelServer is an httptest server standing in for a chat-completion API.
// Responses queued for a path are served in order; the last one repeats.
type ModelServer struct {
	server   *httptest.Server
	mu       sync.Mutex
	queues   map[string][]ModelResponse
	requests []RecordedRequest
}

// RecordedRequest is a request received by a ModelServer.
type RecordedRequest struct {
	Path    string
	Headers http.Header
	Body    []byte
}

// NewModelServer starts a server. Callers must Close it.
func NewModelServer() *ModelServer {
	ms := &ModelServer{queues: make(map[string][]ModelResponse)}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handle))
	return ms
}

// URL returns the server's base URL.
func (ms *ModelServer) URL() string {
	return ms.server.URL
}

// Close shuts the server down.
func (ms *ModelServer) Close() {
	ms.server.Close()
}

// Enqueue appends replies for path.
func (ms *ModelServer) Enqueue(path string, responses ...ModelResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.queues[path] = append(ms.queues[path], responses...)
}

// Requests returns the requests received so far.
func (ms *ModelServer) Requests() []RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]RecordedRequest(nil), ms.requests...)
}

func (ms *ModelServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requests = append(ms.requests, RecordedRequest{Path: r.URL.Path, Headers: r.Header.Clone(), Body: body})
	queue := ms.queues[r.URL.Path]
	var resp ModelResponse
	ok := len(queue) > 0
	if ok {
		resp = queue[0]
		if len(queue) > 1 {
			ms.queues[r.URL.Path] = queue[1:]
		}
	}
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	if resp.StatusCode == 0 {
		resp.StatusCode = http.StatusOK
	}
	w.WriteHeader(resp.StatusCode)

	switch v := resp.Body.(type) {
	case nil:
	case string:
		_, _ = w.Write([]byte(v))
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

// ChatCompletion builds an OpenAI-style chat completion body.
func ChatCompletion(content, model string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": Epoch.Unix(),
		"model":   model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150},
	}
}

// AnthropicMessage builds an Anthropic messages API body.
func AnthropicMessage(content, model string) map[string]any {
	return map[string]any{
		"id":          "msg-test",
		"type":        "message",
		"role":        "assistant",
		"model":       model,
		"content":     []map[string]any{{"type": "text", "text": content}},
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 100, "output_tokens": 50},
	}
}
