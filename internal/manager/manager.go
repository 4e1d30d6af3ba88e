// Package manager implements the Provider Manager: priority-ordered
// dispatch with quota/rate/transport error interpretation, cooldown
// tracking, sticky success-caching, and periodic background health
// refresh (spec.md §4.3).
package manager

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	aerrors "github.com/textenhance/core/pkg/errors"
	"github.com/textenhance/core/pkg/interfaces"
	"github.com/textenhance/core/pkg/types"
)

// Cooldown defaults per spec.md §4.3. QuotaCooldown is overridden by a
// vendor-supplied reset hint when one is present on the error.
const (
	DefaultQuotaCooldown     = time.Hour
	DefaultRateCooldown      = 60 * time.Second
	DefaultTransientCooldown = 5 * time.Minute
	DefaultRefreshInterval   = 10 * time.Minute
)

// Request is the Manager's sole input. PromptText is the rendered user
// body, used verbatim for vision dispatch; Messages is the full neutral
// conversation used for text dispatch.
type Request struct {
	Messages     []types.Message
	PromptText   string
	DocumentType types.DocumentType
	Image        []byte
	PreferVision bool
}

// Outcome is the Manager's sole output: exactly one of Cancelled,
// AllFailed, or a populated successful completion is true/non-empty.
type Outcome struct {
	ProviderName     string
	ModelName        string
	Text             string
	Usage            *types.TokenUsage
	Latency          time.Duration
	FallbackOccurred bool
	Cancelled        bool
	AllFailed        bool
	ErrorMessage     string
	AttemptedCount   int
}

// Manager owns adapter dispatch. It holds no long-lived lock: the
// Registry it wraps already serializes its own status map.
type Manager struct {
	registry registryReader
	log      *zap.Logger
	sticky   atomic.Value // string

	quotaCooldown     time.Duration
	rateCooldown      time.Duration
	transientCooldown time.Duration

	cronSched *cron.Cron
}

// registryReader is interfaces.ProviderRegistry under a local name, so
// tests can supply a fake without importing the registry package.
type registryReader = interfaces.ProviderRegistry

// New builds a Manager around reg using spec.md's default cooldowns.
func New(reg interfaces.ProviderRegistry, log *zap.Logger) *Manager {
	m := &Manager{
		registry:          reg,
		log:               log,
		quotaCooldown:     DefaultQuotaCooldown,
		rateCooldown:      DefaultRateCooldown,
		transientCooldown: DefaultTransientCooldown,
	}
	m.sticky.Store("")
	return m
}

// StartBackgroundRefresh launches the periodic health probe described in
// spec.md §4.3. Call Stop to release the scheduler's goroutine.
func (m *Manager) StartBackgroundRefresh(interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	m.cronSched = cron.New()
	_, err := m.cronSched.AddFunc("@every "+interval.String(), func() {
		m.refreshEligible(context.Background())
	})
	if err != nil {
		return err
	}
	m.cronSched.Start()
	return nil
}

// Stop halts the background refresh scheduler, if running.
func (m *Manager) Stop() {
	if m.cronSched != nil {
		m.cronSched.Stop()
	}
}

func (m *Manager) refreshEligible(ctx context.Context) {
	now := time.Now()
	snapshot := m.registry.StatusSnapshot()
	for _, adapter := range m.registry.ByPriority() {
		status, ok := snapshot[adapter.Name()]
		if !ok {
			continue
		}
		if status.Available && status.CooldownUntil.IsZero() {
			continue // healthy and never sidelined, no need to probe
		}
		if !status.InCooldown(now.Add(2 * time.Minute)) {
			// already expired, or about to within the next probe window
			start := time.Now()
			err := adapter.Health(ctx)
			latency := time.Since(start)
			m.applyHealthResult(adapter.Name(), status, err, latency)
		}
	}
}

func (m *Manager) applyHealthResult(name string, prior types.ProviderStatus, err error, latency time.Duration) {
	now := time.Now()
	if err == nil {
		m.registry.Update(name, types.ProviderStatus{
			Name:           name,
			Available:      true,
			LastCheckedAt:  now,
			LastLatency:    latency,
			LastErrorCause: types.CauseNone,
			SupportsVision: prior.SupportsVision,
		})
		return
	}
	cause := aerrors.CauseOf(err)
	m.registry.Update(name, types.ProviderStatus{
		Name:           name,
		Available:      false,
		LastCheckedAt:  now,
		LastLatency:    latency,
		LastErrorCause: cause,
		CooldownUntil:  now.Add(m.cooldownFor(cause, err)),
		SupportsVision: prior.SupportsVision,
	})
}

// Enhance runs the selection algorithm and provider walk of spec.md
// §4.3. A cancelled context aborts between attempts without touching
// ProviderStatus (cancellation is not evidence of provider failure).
func (m *Manager) Enhance(ctx context.Context, req Request) Outcome {
	reqID := generateRequestID()
	eligible := m.eligibleAdapters()
	if len(eligible) == 0 {
		m.log.Warn("no providers available", zap.String("request_id", reqID))
		return Outcome{AllFailed: true, ErrorMessage: "no providers available"}
	}

	eligible = m.floatSticky(eligible)
	if req.PreferVision && len(req.Image) > 0 {
		eligible = partitionVisionFirst(eligible)
	}

	var causes []string
	attempted := 0
	for _, adapter := range eligible {
		if ctx.Err() != nil {
			m.log.Info("enhance cancelled", zap.String("request_id", reqID), zap.Int("attempted", attempted))
			return Outcome{Cancelled: true, AttemptedCount: attempted}
		}
		attempted++

		start := time.Now()
		text, usage, err := m.dispatch(ctx, adapter, req)
		latency := time.Since(start)

		if err == nil {
			m.onSuccess(adapter.Name(), latency)
			m.log.Info("enhance succeeded",
				zap.String("request_id", reqID),
				zap.String("provider", adapter.Name()),
				zap.Duration("latency", latency),
				zap.Int("attempted", attempted),
			)
			return Outcome{
				ProviderName:     adapter.Name(),
				ModelName:        adapter.Model(),
				Text:             text,
				Usage:            usage,
				Latency:          latency,
				FallbackOccurred: attempted > 1,
				AttemptedCount:   attempted,
			}
		}

		if ctx.Err() != nil {
			return Outcome{Cancelled: true, AttemptedCount: attempted}
		}

		cause := m.onFailure(adapter.Name(), err, latency)
		m.log.Warn("provider attempt failed",
			zap.String("request_id", reqID),
			zap.String("provider", adapter.Name()),
			zap.String("cause", string(cause)),
		)
		causes = append(causes, adapter.Name()+": "+string(cause))
	}

	m.log.Error("all providers exhausted", zap.String("request_id", reqID), zap.Int("attempted", attempted))
	return Outcome{
		AllFailed: true,
		// Every provider was tried and failed, so a fallback was always
		// attempted, even when there was only one eligible adapter
		// (spec.md §4.4 step 8).
		FallbackOccurred: true,
		ErrorMessage:     summarizeCauses(causes),
		AttemptedCount:   attempted,
	}
}

// generateRequestID mints a correlation id for one Enhance call's log
// lines, in the same req_<uuid> shape the teacher uses for LLM calls.
func generateRequestID() string {
	return fmt.Sprintf("req_%s", uuid.New().String())
}

func (m *Manager) dispatch(ctx context.Context, adapter interfaces.ProviderAdapter, req Request) (string, *types.TokenUsage, error) {
	if req.PreferVision && len(req.Image) > 0 {
		if vision, ok := adapter.(interfaces.VisionAdapter); ok {
			return vision.CompleteVision(ctx, req.PromptText, req.Image, req.DocumentType)
		}
	}
	return adapter.CompleteText(ctx, req.Messages, req.DocumentType)
}

func (m *Manager) eligibleAdapters() []interfaces.ProviderAdapter {
	now := time.Now()
	snapshot := m.registry.StatusSnapshot()
	var out []interfaces.ProviderAdapter
	for _, adapter := range m.registry.ByPriority() {
		status, ok := snapshot[adapter.Name()]
		if !ok {
			out = append(out, adapter) // never probed yet, assume eligible
			continue
		}
		if status.Available || !status.InCooldown(now) {
			out = append(out, adapter)
		}
	}
	return out
}

func (m *Manager) floatSticky(eligible []interfaces.ProviderAdapter) []interfaces.ProviderAdapter {
	name, _ := m.sticky.Load().(string)
	if name == "" {
		return eligible
	}
	idx := -1
	for i, a := range eligible {
		if a.Name() == name {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return eligible
	}
	out := make([]interfaces.ProviderAdapter, 0, len(eligible))
	out = append(out, eligible[idx])
	out = append(out, eligible[:idx]...)
	out = append(out, eligible[idx+1:]...)
	return out
}

func partitionVisionFirst(adapters []interfaces.ProviderAdapter) []interfaces.ProviderAdapter {
	out := make([]interfaces.ProviderAdapter, len(adapters))
	copy(out, adapters)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SupportsVision() && !out[j].SupportsVision()
	})
	return out
}

func (m *Manager) onSuccess(name string, latency time.Duration) {
	m.sticky.Store(name)
	m.registry.Update(name, types.ProviderStatus{
		Name:           name,
		Available:      true,
		LastCheckedAt:  time.Now(),
		LastLatency:    latency,
		LastErrorCause: types.CauseNone,
		SupportsVision: m.supportsVision(name),
	})
}

func (m *Manager) onFailure(name string, err error, latency time.Duration) types.ErrorCause {
	if current, _ := m.sticky.Load().(string); current == name {
		m.sticky.Store("")
	}

	cause := aerrors.CauseOf(err)
	var retryAfter time.Duration
	var pe *aerrors.ProviderError
	if aerrors.As(err, &pe) {
		retryAfter = pe.RetryAfter
	}

	now := time.Now()
	status := types.ProviderStatus{
		Name:           name,
		Available:      false,
		LastCheckedAt:  now,
		LastLatency:    latency,
		LastErrorCause: cause,
		SupportsVision: m.supportsVision(name),
	}

	switch cause {
	case types.CauseQuotaExceeded:
		if retryAfter > 0 {
			status.CooldownUntil = now.Add(retryAfter)
			status.QuotaResetHint = retryAfter
		} else {
			status.CooldownUntil = now.Add(m.quotaCooldown)
		}
	case types.CauseRateLimited:
		if retryAfter > 0 {
			status.CooldownUntil = now.Add(retryAfter)
		} else {
			status.CooldownUntil = now.Add(m.rateCooldown)
		}
	case types.CauseTransport, types.CauseBadResponse:
		status.CooldownUntil = now.Add(m.transientCooldown)
	case types.CauseInvalidAuth, types.CauseFatal:
		status.CooldownUntil = time.Unix(1<<62, 0) // effectively forever, for this process
	}

	m.registry.Update(name, status)
	return cause
}

func (m *Manager) cooldownFor(cause types.ErrorCause, err error) time.Duration {
	var retryAfter time.Duration
	var pe *aerrors.ProviderError
	if aerrors.As(err, &pe) {
		retryAfter = pe.RetryAfter
	}
	switch cause {
	case types.CauseQuotaExceeded:
		if retryAfter > 0 {
			return retryAfter
		}
		return m.quotaCooldown
	case types.CauseRateLimited:
		if retryAfter > 0 {
			return retryAfter
		}
		return m.rateCooldown
	case types.CauseInvalidAuth, types.CauseFatal:
		return time.Unix(1<<62, 0).Sub(time.Now())
	default:
		return m.transientCooldown
	}
}

// StickyPreferred returns the currently cached preferred provider name,
// or "" if none is set.
func (m *Manager) StickyPreferred() string {
	name, _ := m.sticky.Load().(string)
	return name
}

func (m *Manager) supportsVision(name string) bool {
	if adapter, ok := m.registry.Get(name); ok {
		return adapter.SupportsVision()
	}
	return false
}

func summarizeCauses(causes []string) string {
	if len(causes) == 0 {
		return "no providers available"
	}
	out := "all providers failed: "
	for i, c := range causes {
		if i > 0 {
			out += "; "
		}
		out += c
	}
	return out
}
