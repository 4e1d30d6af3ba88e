// Package interfaces defines the capability-typed contracts that let the
// Provider Registry, Manager, and Orchestrator depend on abstractions
// rather than on any one vendor's wire format.
package interfaces

import (
	"context"

	"github.com/textenhance/core/pkg/types"
)

// ProviderAdapter is the contract every vendor adapter implements. It is
// the shared surface of §4.1: text completion, health probing, and a
// capability flag. Vision support is expressed as a separate interface
// (VisionAdapter) so the type system — not a runtime flag check alone —
// prevents calling a vision method on a text-only adapter.
type ProviderAdapter interface {
	// Name is the adapter's registry key (e.g. "groq").
	Name() string

	// CompleteText sends role-tagged messages and returns corrected text
	// or a *errors.ProviderError.
	CompleteText(ctx context.Context, messages []types.Message, documentType types.DocumentType) (string, *types.TokenUsage, error)

	// Health probes the provider without consuming a full completion
	// budget. Returns nil on success, a *errors.ProviderError otherwise.
	Health(ctx context.Context) error

	// SupportsVision reports whether this adapter also implements
	// VisionAdapter. Always consistent with a successful type-assertion
	// to VisionAdapter.
	SupportsVision() bool

	// Model returns the text model name actually configured, for
	// EnhancementResult.ModelUsed.
	Model() string
}

// VisionAdapter is implemented only by adapters whose ProviderConfig
// carries a VisionModel.
type VisionAdapter interface {
	ProviderAdapter

	// CompleteVision sends a text prompt plus an image attachment.
	CompleteVision(ctx context.Context, promptText string, image []byte, documentType types.DocumentType) (string, *types.TokenUsage, error)
}

// ProviderRegistry holds live adapters plus their mutable status and
// exposes the two reads and one write described in spec.md §4.2.
type ProviderRegistry interface {
	ByPriority() []ProviderAdapter
	StatusSnapshot() map[string]types.ProviderStatus
	Update(name string, status types.ProviderStatus)
	Get(name string) (ProviderAdapter, bool)
}

// ResponseValidationRule is one check the Orchestrator runs against a
// candidate enhanced text before accepting it (spec.md §4.4 step 6).
type ResponseValidationRule interface {
	// Validate returns a non-empty reason if the rule rejects the text.
	// renderedPrompt is the rendered template body (the user turn with
	// the original text substituted in; the system preamble is not part
	// of it), used by the echo guard; originalText is the
	// raw input text, used by the sanity-bound guard — spec.md §4.4
	// step 6 distinguishes the two explicitly.
	Validate(renderedPrompt, originalText, candidate string) (reason string, ok bool)
	Name() string
}

// PromptTemplate renders a document type's system preamble and a single
// literal substitution of the original text into the user body.
type PromptTemplate interface {
	SystemPreamble() string
	Render(originalText string) (string, error)
}
