// Package retrieval wraps the external RAG collaborator. The embedding model
// and the vector index are someone else's problem; all chronicle sees is
// query(text, k) returning ranked snippets.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Snippet is one ranked retrieval result.
type Snippet struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Index is the retrieval collaborator contract. Query must be idempotent for
// identical text/k against the same index state.
type Index interface {
	Query(ctx context.Context, text string, k int) ([]Snippet, error)
}

// Compile-time interface check.
var _ Index = (*ServiceIndex)(nil)

// ServiceIndex queries a retrieval service over HTTP/JSON.
type ServiceIndex struct {
	http     *http.Client
	endpoint string
}

// NewServiceIndex creates an Index backed by the service at endpoint.
func NewServiceIndex(endpoint string) *ServiceIndex {
	return &ServiceIndex{
		http:     &http.Client{Timeout: 30 * time.Second},
		endpoint: endpoint,
	}
}

type queryRequest struct {
	Text string `json:"text"`
	TopK int    `json:"top_k"`
}

type queryResponse struct {
	Snippets []Snippet `json:"snippets"`
}

// Query POSTs the query text and returns the service's ranked snippets.
func (s *ServiceIndex) Query(ctx context.Context, text string, k int) ([]Snippet, error) {
	body, err := json.Marshal(queryRequest{Text: text, TopK: k})
	if err != nil {
		return nil, fmt.Errorf("retrieval: marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("retrieval: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieval: query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("retrieval: query: HTTP %d: %s", resp.StatusCode, b)
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("retrieval: decode response: %w", err)
	}

	if len(qr.Snippets) > k && k > 0 {
		qr.Snippets = qr.Snippets[:k]
	}
	return qr.Snippets, nil
}
