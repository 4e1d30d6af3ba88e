package adapters

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/textenhance/core/pkg/interfaces"
	"github.com/textenhance/core/pkg/types"
)

// defaultOutboundRPS and defaultOutboundBurst size the defensive
// per-provider token bucket every adapter is wrapped in: a client-side
// throttle independent of the vendor's own 429 signaling, guarding
// against bursty fan-out when many concurrent enhance calls land on the
// same sticky preferred provider.
const (
	defaultOutboundRPS   = 5
	defaultOutboundBurst = 10
)

// rateLimitedAdapter decorates a ProviderAdapter with a token bucket,
// grounded on the retrieval pack's agentflow RateLimiter middleware
// (cmd/agentflow/middleware.go), adapted from a per-IP HTTP limiter to a
// per-outbound-provider one.
type rateLimitedAdapter struct {
	interfaces.ProviderAdapter
	limiter *rate.Limiter
}

// rateLimitedVisionAdapter additionally throttles CompleteVision for
// adapters that support it.
type rateLimitedVisionAdapter struct {
	rateLimitedAdapter
	vision interfaces.VisionAdapter
}

func withOutboundRateLimit(a interfaces.ProviderAdapter) interfaces.ProviderAdapter {
	limiter := rate.NewLimiter(rate.Limit(defaultOutboundRPS), defaultOutboundBurst)
	base := rateLimitedAdapter{ProviderAdapter: a, limiter: limiter}
	if vision, ok := a.(interfaces.VisionAdapter); ok && a.SupportsVision() {
		return &rateLimitedVisionAdapter{rateLimitedAdapter: base, vision: vision}
	}
	return &base
}

func (r *rateLimitedAdapter) CompleteText(ctx context.Context, messages []types.Message, documentType types.DocumentType) (string, *types.TokenUsage, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", nil, err
	}
	return r.ProviderAdapter.CompleteText(ctx, messages, documentType)
}

func (r *rateLimitedVisionAdapter) CompleteVision(ctx context.Context, promptText string, image []byte, documentType types.DocumentType) (string, *types.TokenUsage, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", nil, err
	}
	return r.vision.CompleteVision(ctx, promptText, image, documentType)
}

var (
	_ interfaces.ProviderAdapter = (*rateLimitedAdapter)(nil)
	_ interfaces.VisionAdapter   = (*rateLimitedVisionAdapter)(nil)
)
