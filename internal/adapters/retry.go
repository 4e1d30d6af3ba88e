package adapters

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	aerrors "github.com/textenhance/core/pkg/errors"
	"github.com/textenhance/core/pkg/types"
)

// retryPolicy returns the exponential-backoff-with-full-jitter policy
// required by spec.md §4.1: base 500ms, cap 4s, full jitter.
// With RandomizationFactor 1.0 the library draws each delay from
// [0, 2*interval], so the intervals are set to half the base and cap:
// delays fall in [0, 500ms*2^n], never above 4s.
func retryPolicy() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.RandomizationFactor = 1.0 // full jitter
	b.Multiplier = 2.0
	return b
}

// withAdapterRetry runs op, retrying only types.CauseTransport failures
// up to maxRetries times under retryPolicy, and retrying a single
// types.CauseRateLimited failure in place when its RetryAfter hint is
// at most two seconds (longer hints propagate to the Manager
// unretried). Every other cause returns immediately.
func withAdapterRetry(ctx context.Context, maxRetries int, op func() (string, *types.TokenUsage, error)) (string, *types.TokenUsage, error) {
	attempt := 0
	rateLimitRetried := false

	result, err := backoff.Retry(ctx, func() (resultPair, error) {
		text, usage, opErr := op()
		if opErr == nil {
			return resultPair{text: text, usage: usage}, nil
		}

		var pe *aerrors.ProviderError
		if !aerrors.As(opErr, &pe) {
			return resultPair{}, backoff.Permanent(opErr)
		}

		switch pe.Cause {
		case types.CauseTransport:
			if attempt >= maxRetries {
				return resultPair{}, backoff.Permanent(opErr)
			}
			attempt++
			return resultPair{}, opErr
		case types.CauseRateLimited:
			if !rateLimitRetried && pe.RetryAfter > 0 && pe.RetryAfter <= 2*time.Second {
				rateLimitRetried = true
				return resultPair{}, opErr
			}
			return resultPair{}, backoff.Permanent(opErr)
		default:
			return resultPair{}, backoff.Permanent(opErr)
		}
	}, backoff.WithBackOff(retryPolicy()), backoff.WithMaxElapsedTime(0))

	if err != nil {
		return "", nil, err
	}
	return result.text, result.usage, nil
}

type resultPair struct {
	text  string
	usage *types.TokenUsage
}
