package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds delivery attempts for one logical model call.
type RetryPolicy struct {
	// Attempts is the total number of delivery attempts (first try included).
	Attempts int

	// BackoffBase is the initial delay before the second attempt. Subsequent
	// delays grow exponentially with jitter.
	BackoffBase time.Duration
}

// Complete performs one logical call through client, retrying transient
// failures under the policy. Non-transient errors and context cancellation
// abort immediately. Retries are delivery attempts of the same logical
// request, never new logical calls.
func (p RetryPolicy) Complete(ctx context.Context, client Client, contextText, instructions string) (string, error) {
	bo := backoff.NewExponentialBackOff()
	if p.BackoffBase > 0 {
		bo.InitialInterval = p.BackoffBase
	}

	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var policy backoff.BackOff = backoff.WithMaxRetries(bo, uint64(attempts-1))
	policy = backoff.WithContext(policy, ctx)

	return backoff.RetryWithData(func() (string, error) {
		out, err := client.Complete(ctx, contextText, instructions)
		if err != nil && !IsTransient(err) {
			return "", backoff.Permanent(err)
		}
		return out, err
	}, policy)
}
