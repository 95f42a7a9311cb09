// Package llm wraps the external generative model behind a one-method
// collaborator contract: hand it context material plus instructions, get
// Markdown text back. The HTTP transport and the retry policy live here;
// prompt content belongs to the calling stage.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client is the generative model collaborator. A call may fail with a
// TransientError (retryable) or any other error (not retryable).
// Implementations: HTTPClient (production), stub clients (testing).
type Client interface {
	// Complete submits contextText and instructions as a single user turn and
	// returns the model's text output.
	Complete(ctx context.Context, contextText, instructions string) (string, error)
}

// TransientError marks a failure worth retrying: rate limiting, 5xx
// responses, network errors, timeouts.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("llm: transient failure: %v", e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
