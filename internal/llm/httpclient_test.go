package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messagesHandler(t *testing.T, status int, blocks ...contentBlock) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req messageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(messageResponse{Content: blocks})
	}
}

func TestHTTPClientComplete(t *testing.T) {
	srv := httptest.NewServer(messagesHandler(t, http.StatusOK,
		contentBlock{Type: "text", Text: "hello "},
		contentBlock{Type: "text", Text: "world"},
	))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-model")
	out, err := client.Complete(context.Background(), "ctx", "do it")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestHTTPClientJoinsContextAndInstructions(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt = req.Messages[0].Content
		json.NewEncoder(w).Encode(messageResponse{Content: []contentBlock{{Type: "text", Text: "ok"}}})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-model")
	_, err := client.Complete(context.Background(), "the material", "the task")
	require.NoError(t, err)
	assert.Equal(t, "the material\n\nthe task", prompt)
}

func TestHTTPClientTransientStatusCodes(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		client := NewHTTPClient(srv.URL, "test-model")
		_, err := client.Complete(context.Background(), "", "task")
		require.Error(t, err, status)
		assert.True(t, IsTransient(err), "HTTP %d should be transient", status)
		srv.Close()
	}
}

func TestHTTPClientPermanentStatusCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-model")
	_, err := client.Complete(context.Background(), "", "task")
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestHTTPClientConnectionErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listens anymore

	client := NewHTTPClient(srv.URL, "test-model")
	_, err := client.Complete(context.Background(), "", "task")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestHTTPClientEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(messagesHandler(t, http.StatusOK))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-model")
	_, err := client.Complete(context.Background(), "", "task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text blocks")
}
