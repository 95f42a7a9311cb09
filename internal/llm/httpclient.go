package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

const defaultMaxTokens = 8192

// HTTPClient implements Client against a messages-style completion endpoint:
// POST {endpoint}/v1/messages with a single user message, text blocks back.
type HTTPClient struct {
	http      *http.Client
	endpoint  string
	model     string
	apiKey    string
	maxTokens int
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout. A timeout counts as one failed
// delivery attempt against the caller's retry budget.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// WithMaxTokens caps the completion length requested per call.
func WithMaxTokens(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxTokens = n
	}
}

// NewHTTPClient creates a model client for the given endpoint and model name.
// The API key is read from CHRONICLE_API_KEY.
func NewHTTPClient(endpoint, model string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		http:      &http.Client{Timeout: 120 * time.Second},
		endpoint:  endpoint,
		model:     model,
		apiKey:    os.Getenv("CHRONICLE_API_KEY"),
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// messageRequest is the wire request for a single-turn completion.
type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messageResponse is the wire response: ordered content blocks.
type messageResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete submits one user turn and returns the concatenated text blocks.
func (c *HTTPClient) Complete(ctx context.Context, contextText, instructions string) (string, error) {
	prompt := instructions
	if contextText != "" {
		prompt = contextText + "\n\n" + instructions
	}

	body, err := json.Marshal(messageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// Transport errors and client timeouts are failed delivery attempts.
		return "", &TransientError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransientError{Cause: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to decoding.
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", &TransientError{Cause: fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(respBody, 200))}
	default:
		return "", fmt.Errorf("llm: HTTP %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var mr messageResponse
	if err := json.Unmarshal(respBody, &mr); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}

	var out bytes.Buffer
	for _, block := range mr.Content {
		if block.Type == "" || block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("llm: response contained no text blocks")
	}
	return out.String(), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
