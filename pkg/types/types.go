// Package types holds the data model shared across the text-enhancement
// core: provider configuration, request/result shapes, and the status
// record the Provider Manager maintains for each adapter.
package types

import "time"

// DocumentType is the closed enumeration of OCR source document kinds.
// Every value must have a prompt template in the Prompt Catalog.
type DocumentType string

const (
	DocumentUnknown      DocumentType = "unknown"
	DocumentGeneral      DocumentType = "general"
	DocumentCode         DocumentType = "code"
	DocumentInvoice      DocumentType = "invoice"
	DocumentForm         DocumentType = "form"
	DocumentHandwritten  DocumentType = "handwritten"
	DocumentMultilingual DocumentType = "multilingual"
)

// Role identifies the speaker of a Message turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged turn in the neutral conversation form that
// adapters translate into a vendor's wire format. The neutral form never
// leaks a vendor keyword (no "contents", no "choices", etc).
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Image carries optional inline image bytes attached to this turn.
	// No adapter reads it: vision dispatch takes its image from
	// manager.Request.Image instead.
	Image []byte `json:"-"`
}

// ProviderConfig is the immutable, validated configuration for one
// vendor adapter. Built once at init by the Configuration Resolver.
type ProviderConfig struct {
	Name          string                 `yaml:"name"`
	Enabled       bool                   `yaml:"enabled"`
	Credential    string                 `yaml:"credential"`
	BaseURL       string                 `yaml:"base_url"`
	TextModel     string                 `yaml:"text_model"`
	VisionModel   string                 `yaml:"vision_model,omitempty"`
	Priority      int                    `yaml:"priority"`
	Timeout       time.Duration          `yaml:"timeout"`
	MaxRetries    int                    `yaml:"max_retries"`
	Parameters    map[string]interface{} `yaml:"parameters,omitempty"`
}

// SupportsVision reports whether this config carries a vision model.
func (c ProviderConfig) SupportsVision() bool {
	return c.VisionModel != ""
}

// ErrorCause is the closed TypedError taxonomy surfaced by an adapter to
// the Provider Manager. It is the single escape hatch for adapter
// failure; no other error shape crosses that boundary.
type ErrorCause string

const (
	CauseNone           ErrorCause = ""
	CauseInvalidAuth    ErrorCause = "invalid_auth"
	CauseQuotaExceeded  ErrorCause = "quota_exceeded"
	CauseRateLimited    ErrorCause = "rate_limited"
	CauseTransport      ErrorCause = "transport"
	CauseBadResponse    ErrorCause = "bad_response"
	CauseFatal          ErrorCause = "fatal"
)

// ProviderStatus is the Provider Manager's mutable health record for one
// adapter. There is exactly one record per known adapter, and it is
// mutated only by the Manager, through the Registry's write lock.
type ProviderStatus struct {
	Name            string        `json:"name"`
	Available       bool          `json:"available"`
	LastCheckedAt   time.Time     `json:"last_checked_at"`
	LastLatency     time.Duration `json:"last_latency"`
	LastErrorCause  ErrorCause    `json:"last_error_cause"`
	CooldownUntil   time.Time     `json:"cooldown_until,omitempty"`
	QuotaResetHint  time.Duration `json:"quota_reset_hint,omitempty"`
	SupportsVision  bool          `json:"supports_vision"`
}

// InCooldown reports whether the status is presently sidelined.
func (s ProviderStatus) InCooldown(now time.Time) bool {
	return !s.CooldownUntil.IsZero() && now.Before(s.CooldownUntil)
}

// EnhancementRequest is the Orchestrator's sole input. It is stack-local
// to a single Orchestrator.Enhance call.
type EnhancementRequest struct {
	OriginalText    string
	DocumentType    DocumentType
	ImageBytes      []byte
	PreferVision    bool
	AlreadyEnhanced bool
}

// TokenUsage records prompt/completion token counts for one provider call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// EnhancementResult is the Orchestrator's sole output. OriginalText is
// always populated, even on total provider failure.
type EnhancementResult struct {
	OriginalText     string       `json:"original_text"`
	EnhancedText     string       `json:"enhanced_text,omitempty"`
	ProviderUsed     string       `json:"provider_used,omitempty"`
	ModelUsed        string       `json:"model_used,omitempty"`
	ElapsedMs        int64        `json:"elapsed_ms"`
	Tokens           *TokenUsage  `json:"tokens,omitempty"`
	Improvements     []string     `json:"improvements,omitempty"`
	FallbackOccurred bool         `json:"fallback_occurred"`
	ErrorMessage     string       `json:"error_message,omitempty"`
	DocumentType     DocumentType `json:"document_type,omitempty"`
	Cancelled        bool         `json:"cancelled,omitempty"`
}

// Succeeded reports whether a provider produced usable enhanced text.
func (r EnhancementResult) Succeeded() bool {
	return r.EnhancedText != ""
}
