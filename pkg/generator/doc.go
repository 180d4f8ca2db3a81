// Package generator calls an external chat-completion API to draft decision
// packs.
//
// Two wire formats are supported: the OpenAI chat completions API (which many
// gateways and local servers also speak) and the Anthropic messages API. A
// Client performs exactly one HTTP exchange per Generate call; retries and
// corrective feedback are handled by decision.GenerateWithRetry, which
// consults Retryable on the errors returned here.
//
// # Errors
//
//   - AuthError: 401 or 403, never retried
//   - RateLimitError: 429, retried after RetryAfter when the server sends it
//   - APIError: other non-2xx statuses, retried for 5xx only
//   - TimeoutError: the request deadline passed
//   - ParseError: the response body was not the expected shape
package generator
