package orchestrator

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/textenhance/core/internal/manager"
	"github.com/textenhance/core/internal/prompts"
	"github.com/textenhance/core/internal/respvalidate"
	"github.com/textenhance/core/pkg/types"
)

type fakeDispatcher struct {
	outcome manager.Outcome
	gotReq  manager.Request
}

func (f *fakeDispatcher) Enhance(ctx context.Context, req manager.Request) manager.Outcome {
	f.gotReq = req
	return f.outcome
}

func newOrchestrator(dispatcher Dispatcher, enabled bool) *Orchestrator {
	return New(dispatcher, prompts.NewCatalog(), respvalidate.NewEngine(), zap.NewNop(), enabled)
}

func TestEnhanceShortCircuitsWhenAlreadyEnhanced(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: manager.Outcome{Text: "should not be used"}}
	o := newOrchestrator(dispatcher, true)

	result := o.Enhance(context.Background(), types.EnhancementRequest{
		OriginalText:    "some text",
		AlreadyEnhanced: true,
	})
	if result.EnhancedText != "" {
		t.Errorf("EnhancedText = %q, want empty on already-enhanced no-op", result.EnhancedText)
	}
	if result.ErrorMessage == "" {
		t.Error("ErrorMessage empty, want an explanatory no-op message")
	}
	if dispatcher.gotReq.Messages != nil {
		t.Error("dispatcher.Enhance should not have been called")
	}
}

func TestEnhanceShortCircuitsWhenDisabled(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: manager.Outcome{Text: "should not be used"}}
	o := newOrchestrator(dispatcher, false)

	result := o.Enhance(context.Background(), types.EnhancementRequest{OriginalText: "some text"})
	if result.EnhancedText != "" {
		t.Errorf("EnhancedText = %q, want empty when disabled", result.EnhancedText)
	}
	if result.OriginalText != "some text" {
		t.Errorf("OriginalText = %q, want preserved", result.OriginalText)
	}
}

func TestEnhanceClassifiesUnsetDocumentType(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: manager.Outcome{Text: "func main() {}"}}
	o := newOrchestrator(dispatcher, true)

	result := o.Enhance(context.Background(), types.EnhancementRequest{
		OriginalText: "func ma1n() {\n  pr1ntln(\"hi\");\n}",
	})
	if result.DocumentType != types.DocumentCode {
		t.Errorf("DocumentType = %q, want code", result.DocumentType)
	}
	if dispatcher.gotReq.DocumentType != types.DocumentCode {
		t.Errorf("dispatched DocumentType = %q, want code", dispatcher.gotReq.DocumentType)
	}
}

func TestEnhanceSuccessPopulatesResult(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: manager.Outcome{
		Text:             "This is the corrected text.",
		ProviderName:     "groq",
		ModelName:        "llama-model",
		Usage:            &types.TokenUsage{PromptTokens: 10, CompletionTokens: 5},
		FallbackOccurred: true,
	}}
	o := newOrchestrator(dispatcher, true)

	result := o.Enhance(context.Background(), types.EnhancementRequest{OriginalText: "Th1s 1s 0riginal t3xt."})
	if !result.Succeeded() {
		t.Fatalf("result did not succeed: %+v", result)
	}
	if result.ProviderUsed != "groq" || result.ModelUsed != "llama-model" {
		t.Errorf("ProviderUsed/ModelUsed = %q/%q, want groq/llama-model", result.ProviderUsed, result.ModelUsed)
	}
	if !result.FallbackOccurred {
		t.Error("FallbackOccurred not propagated from outcome")
	}
	if result.Tokens == nil || result.Tokens.PromptTokens != 10 {
		t.Errorf("Tokens = %+v, want propagated usage", result.Tokens)
	}
}

func TestEnhanceRejectsEchoedResponse(t *testing.T) {
	original := "Th1s 1s 0riginal t3xt."
	// Render the general template so the dispatcher can echo back exactly
	// what the orchestrator sent, forcing the not_echo rule to trip.
	catalog := prompts.NewCatalog()
	template, _ := catalog.TemplateFor(types.DocumentGeneral)
	rendered, err := template.Render(original)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	dispatcher := &fakeDispatcher{outcome: manager.Outcome{Text: rendered}}
	o := New(dispatcher, catalog, respvalidate.NewEngine(), zap.NewNop(), true)

	result := o.Enhance(context.Background(), types.EnhancementRequest{OriginalText: original})
	if result.Succeeded() {
		t.Fatalf("result succeeded on an echoed response: %+v", result)
	}
	if result.ErrorMessage == "" {
		t.Error("ErrorMessage empty, want rejection reason")
	}
}

func TestEnhancePropagatesAllFailed(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: manager.Outcome{AllFailed: true, ErrorMessage: "all providers exhausted: quota_exceeded, rate_limited"}}
	o := newOrchestrator(dispatcher, true)

	result := o.Enhance(context.Background(), types.EnhancementRequest{OriginalText: "some text"})
	if result.Succeeded() {
		t.Fatal("result succeeded despite AllFailed outcome")
	}
	if result.ErrorMessage == "" {
		t.Error("ErrorMessage empty on AllFailed")
	}
}

func TestEnhancePropagatesCancellation(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: manager.Outcome{Cancelled: true}}
	o := newOrchestrator(dispatcher, true)

	result := o.Enhance(context.Background(), types.EnhancementRequest{OriginalText: "some text"})
	if !result.Cancelled {
		t.Errorf("Cancelled = false, want true")
	}
	if result.Succeeded() {
		t.Error("result succeeded despite cancellation")
	}
}

func TestComputeImprovementTags(t *testing.T) {
	tests := []struct {
		name     string
		original string
		enhanced string
		want     string
	}{
		{"digit/letter fix", "Th1s 1s a t3st", "This is a test", "digit→letter substitutions corrected"},
		{"punctuation added", "hello world", "hello, world.", "punctuation added"},
		{"diacritics added", "cafe", "café", "diacritics added"},
		{"line breaks normalized", "line1\r\n\n\n\nline2", "line1\nline2", "line breaks normalized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := computeImprovementTags(tt.original, tt.enhanced)
			found := false
			for _, tag := range tags {
				if tag == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("computeImprovementTags(%q, %q) = %v, want to contain %q", tt.original, tt.enhanced, tags, tt.want)
			}
		})
	}
}

func TestComputeImprovementTagsEmptyWhenNoChange(t *testing.T) {
	tags := computeImprovementTags("identical text", "identical text")
	if len(tags) != 0 {
		t.Errorf("computeImprovementTags() = %v, want empty for unchanged text", tags)
	}
}
