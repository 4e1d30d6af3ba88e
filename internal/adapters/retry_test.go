package adapters

import (
	"context"
	"testing"
	"time"

	aerrors "github.com/textenhance/core/pkg/errors"
	"github.com/textenhance/core/pkg/types"
)

func TestWithAdapterRetrySucceedsAfterTransportRetries(t *testing.T) {
	calls := 0
	op := func() (string, *types.TokenUsage, error) {
		calls++
		if calls < 3 {
			return "", nil, aerrors.New("groq", types.CauseTransport, "dial timeout")
		}
		return "fixed text", &types.TokenUsage{PromptTokens: 10}, nil
	}

	text, usage, err := withAdapterRetry(context.Background(), 3, op)
	if err != nil {
		t.Fatalf("withAdapterRetry() error = %v", err)
	}
	if text != "fixed text" {
		t.Errorf("text = %q, want %q", text, "fixed text")
	}
	if usage == nil || usage.PromptTokens != 10 {
		t.Errorf("usage = %+v, want PromptTokens=10", usage)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithAdapterRetryGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	op := func() (string, *types.TokenUsage, error) {
		calls++
		return "", nil, aerrors.New("groq", types.CauseTransport, "dial timeout")
	}

	_, _, err := withAdapterRetry(context.Background(), 2, op)
	if err == nil {
		t.Fatal("withAdapterRetry() error = nil, want a transport failure")
	}
	if calls != 3 { // initial attempt + 2 retries
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithAdapterRetryRetriesRateLimitOnceWhenHintShort(t *testing.T) {
	calls := 0
	op := func() (string, *types.TokenUsage, error) {
		calls++
		if calls == 1 {
			return "", nil, aerrors.New("deepseek", types.CauseRateLimited, "slow down").WithRetryAfter(time.Second)
		}
		return "ok", nil, nil
	}

	text, _, err := withAdapterRetry(context.Background(), 3, op)
	if err != nil {
		t.Fatalf("withAdapterRetry() error = %v", err)
	}
	if text != "ok" {
		t.Errorf("text = %q, want %q", text, "ok")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", calls)
	}
}

func TestWithAdapterRetryDoesNotRetryRateLimitWithLongHint(t *testing.T) {
	calls := 0
	op := func() (string, *types.TokenUsage, error) {
		calls++
		return "", nil, aerrors.New("deepseek", types.CauseRateLimited, "slow down").WithRetryAfter(10 * time.Second)
	}

	_, _, err := withAdapterRetry(context.Background(), 3, op)
	if err == nil {
		t.Fatal("withAdapterRetry() error = nil, want rate-limited failure")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry for a long retry-after hint)", calls)
	}
}

func TestWithAdapterRetryPropagatesFatalImmediately(t *testing.T) {
	calls := 0
	op := func() (string, *types.TokenUsage, error) {
		calls++
		return "", nil, aerrors.New("gemini", types.CauseFatal, "bad request")
	}

	_, _, err := withAdapterRetry(context.Background(), 5, op)
	if err == nil {
		t.Fatal("withAdapterRetry() error = nil, want fatal failure")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (Fatal never retries)", calls)
	}
}
