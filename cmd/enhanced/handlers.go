package main

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/textenhance/core/internal/orchestrator"
	"github.com/textenhance/core/pkg/types"
)

// enhanceRequestBody is the JSON shape of the Orchestrator's invocation
// contract (spec.md §6).
type enhanceRequestBody struct {
	Text            string `json:"text"`
	DocumentType    string `json:"documentType"`
	Image           []byte `json:"image,omitempty"`
	PreferVision    bool   `json:"preferVision,omitempty"`
	AlreadyEnhanced bool   `json:"alreadyEnhanced,omitempty"`
}

func enhanceHandler(orch *orchestrator.Orchestrator, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, err := io.ReadAll(io.LimitReader(r.Body, 16<<20))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		var reqBody enhanceRequestBody
		if err := json.Unmarshal(body, &reqBody); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if reqBody.Text == "" {
			http.Error(w, "text must not be empty", http.StatusBadRequest)
			return
		}

		req := types.EnhancementRequest{
			OriginalText:    reqBody.Text,
			DocumentType:    types.DocumentType(reqBody.DocumentType),
			ImageBytes:      reqBody.Image,
			PreferVision:    reqBody.PreferVision,
			AlreadyEnhanced: reqBody.AlreadyEnhanced,
		}

		result := orch.Enhance(r.Context(), req)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			log.Errorw("failed to encode enhancement result", "error", err)
		}
	}
}

// healthStatus mirrors the per-provider record of spec.md §6.
type healthStatus struct {
	Status              string `json:"status"`
	ResponseTimeMs      *int64 `json:"responseTimeMs"`
	CooldownRemainingMs *int64 `json:"cooldownRemainingMs"`
}

type healthSnapshotBody struct {
	Providers        map[string]healthStatus `json:"providers"`
	StickyPreferred  string                   `json:"stickyPreferred,omitempty"`
}

func healthHandler(reg interface {
	StatusSnapshot() map[string]types.ProviderStatus
}, sticky func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		snapshot := reg.StatusSnapshot()
		out := healthSnapshotBody{
			Providers:       make(map[string]healthStatus, len(snapshot)),
			StickyPreferred: sticky(),
		}
		for name, status := range snapshot {
			out.Providers[name] = healthStatus{
				Status:              statusLabel(status),
				ResponseTimeMs:      latencyMsOrNil(status),
				CooldownRemainingMs: cooldownMsOrNil(status, now),
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func statusLabel(status types.ProviderStatus) string {
	if status.Available {
		return "available"
	}
	switch status.LastErrorCause {
	case types.CauseQuotaExceeded:
		return "quota_exceeded"
	case types.CauseRateLimited:
		return "rate_limited"
	default:
		return "unavailable"
	}
}

func latencyMsOrNil(status types.ProviderStatus) *int64 {
	if status.LastCheckedAt.IsZero() {
		return nil
	}
	ms := status.LastLatency.Milliseconds()
	return &ms
}

func cooldownMsOrNil(status types.ProviderStatus, now time.Time) *int64 {
	if !status.InCooldown(now) {
		return nil
	}
	ms := status.CooldownUntil.Sub(now).Milliseconds()
	return &ms
}
