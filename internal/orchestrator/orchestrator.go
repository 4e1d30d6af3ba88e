// Package orchestrator implements the Enhancement Orchestrator: the
// single entry point that classifies document type, fetches and renders
// a prompt, builds the neutral request, dispatches to the Provider
// Manager, validates the response, and returns a result that always
// carries the original text (spec.md §4.4).
package orchestrator

import (
	"context"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/textenhance/core/internal/manager"
	"github.com/textenhance/core/internal/prompts"
	"github.com/textenhance/core/internal/respvalidate"
	"github.com/textenhance/core/pkg/types"
)

// Dispatcher is the subset of *manager.Manager the Orchestrator depends
// on, named so tests can supply a fake.
type Dispatcher interface {
	Enhance(ctx context.Context, req manager.Request) manager.Outcome
}

// Orchestrator is the system's sole public entry point.
type Orchestrator struct {
	dispatcher Dispatcher
	catalog    *prompts.Catalog
	validator  *respvalidate.Engine
	log        *zap.Logger
	enabled    bool
}

// New builds an Orchestrator. enabled mirrors enhancement.enabled
// (spec.md §6); when false, Enhance always short-circuits to pass-through.
func New(dispatcher Dispatcher, catalog *prompts.Catalog, validator *respvalidate.Engine, log *zap.Logger, enabled bool) *Orchestrator {
	return &Orchestrator{
		dispatcher: dispatcher,
		catalog:    catalog,
		validator:  validator,
		log:        log,
		enabled:    enabled,
	}
}

// Enhance runs the full pipeline of spec.md §4.4. It never returns an
// error: every failure mode is represented in the returned
// EnhancementResult.
func (o *Orchestrator) Enhance(ctx context.Context, req types.EnhancementRequest) types.EnhancementResult {
	start := time.Now()
	base := types.EnhancementResult{OriginalText: req.OriginalText}

	if req.AlreadyEnhanced {
		base.ErrorMessage = "no-op: request already carries an enhanced result"
		base.ElapsedMs = time.Since(start).Milliseconds()
		return base
	}

	if !o.enabled {
		base.ErrorMessage = "enhancement disabled"
		base.ElapsedMs = time.Since(start).Milliseconds()
		return base
	}

	documentType := req.DocumentType
	fellBackToGeneral := false
	if documentType == "" || documentType == types.DocumentUnknown {
		documentType = prompts.Classify(req.OriginalText)
	}
	base.DocumentType = documentType

	template, usedFallback := o.catalog.TemplateFor(documentType)
	fellBackToGeneral = fellBackToGeneral || usedFallback

	renderedBody, err := template.Render(req.OriginalText)
	if err != nil {
		base.ErrorMessage = "prompt render failed: " + err.Error()
		base.ElapsedMs = time.Since(start).Milliseconds()
		return base
	}

	messages := []types.Message{
		{Role: types.RoleSystem, Content: template.SystemPreamble()},
		{Role: types.RoleUser, Content: renderedBody},
	}

	outcome := o.dispatcher.Enhance(ctx, manager.Request{
		Messages:     messages,
		PromptText:   renderedBody,
		DocumentType: documentType,
		Image:        req.ImageBytes,
		PreferVision: req.PreferVision,
	})

	base.ElapsedMs = time.Since(start).Milliseconds()
	base.FallbackOccurred = outcome.FallbackOccurred

	if outcome.Cancelled {
		base.Cancelled = true
		base.ErrorMessage = "request cancelled"
		return base
	}

	if outcome.AllFailed {
		base.ErrorMessage = outcome.ErrorMessage
		if fellBackToGeneral {
			base.ErrorMessage += " (document type fell back to general)"
		}
		return base
	}

	if reason, ok := o.validator.Validate(renderedBody, req.OriginalText, outcome.Text); !ok {
		base.ErrorMessage = "response rejected: " + reason
		return base
	}

	base.EnhancedText = outcome.Text
	base.ProviderUsed = outcome.ProviderName
	base.ModelUsed = outcome.ModelName
	base.Tokens = outcome.Usage
	base.Improvements = computeImprovementTags(req.OriginalText, outcome.Text)
	return base
}

// computeImprovementTags implements spec.md §4.4 step 7: opportunistic,
// advisory labels derived from character-class comparison. They never
// affect success/failure.
func computeImprovementTags(original, enhanced string) []string {
	var tags []string

	if digitLetterImproved(original, enhanced) {
		tags = append(tags, "digit→letter substitutions corrected")
	}
	if countPunct(enhanced) > countPunct(original) {
		tags = append(tags, "punctuation added")
	}
	if countDiacritics(enhanced) > countDiacritics(original) {
		tags = append(tags, "diacritics added")
	}
	if lineBreaksWereNormalized(original, enhanced) {
		tags = append(tags, "line breaks normalized")
	}
	return tags
}

// lineBreaksWereNormalized reports whether the enhanced text dropped
// carriage returns or collapsed runs of 3+ consecutive newlines that
// were present in the original.
func lineBreaksWereNormalized(original, enhanced string) bool {
	hadCR := strings.Contains(original, "\r")
	lostCR := hadCR && !strings.Contains(enhanced, "\r")

	hadRunOfBlankLines := strings.Contains(original, "\n\n\n")
	collapsedBlankLines := hadRunOfBlankLines && !strings.Contains(enhanced, "\n\n\n")

	return lostCR || collapsedBlankLines
}

// digitLetterImproved reports whether enhanced text is shorter in digit
// count than the original while the alphabetic count grew, a loose
// signal that digit/letter OCR confusions (0→O, 1→l, 3→E, ...) were
// resolved.
func digitLetterImproved(original, enhanced string) bool {
	origDigits, origLetters := countClasses(original)
	newDigits, newLetters := countClasses(enhanced)
	return newDigits < origDigits && newLetters > origLetters
}

func countClasses(s string) (digits, letters int) {
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		}
	}
	return
}

func countPunct(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsPunct(r) {
			n++
		}
	}
	return n
}

func countDiacritics(s string) int {
	n := 0
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) || (r >= 0x00C0 && r <= 0x024F) {
			n++
		}
	}
	return n
}

