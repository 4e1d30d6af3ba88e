// Package respvalidate implements response validation (spec.md §4.4
// step 6): a small rule engine that the Enhancement Orchestrator runs
// against a candidate enhanced text before accepting it. The rule-based
// engine shape (named rules, each independently checkable and listable)
// is adapted from the teacher's internal/validator rule-engine
// architecture, repurposed from auditing structured queries to
// validating OCR correction output.
package respvalidate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/textenhance/core/pkg/interfaces"
)

// Engine runs every registered rule against a candidate and reports the
// first rejection, or success if all rules pass.
type Engine struct {
	rules []interfaces.ResponseValidationRule
}

// NewEngine builds the response validation engine with the spec's three
// rules: non-empty, non-echo, and a sanity upper bound.
func NewEngine() *Engine {
	return &Engine{
		rules: []interfaces.ResponseValidationRule{
			nonEmptyRule{},
			notEchoRule{},
			sanityBoundRule{multiplier: 10},
		},
	}
}

// Validate returns the first rejection reason, or "" if the candidate
// passes every rule. renderedPrompt is the full rendered template body
// (used by the echo guard); originalText is the raw input text (used by
// the sanity-bound guard) — spec.md §4.4 step 6 keeps the two distinct
// so template boilerplate never inflates the 10x length bound.
func (e *Engine) Validate(renderedPrompt, originalText, candidate string) (reason string, ok bool) {
	for _, r := range e.rules {
		if reason, ok := r.Validate(renderedPrompt, originalText, candidate); !ok {
			return reason, false
		}
	}
	return "", true
}

// Rules exposes the active rule set, mirroring the teacher's
// GetApplicableRules visibility surface.
func (e *Engine) Rules() []interfaces.ResponseValidationRule {
	return append([]interfaces.ResponseValidationRule(nil), e.rules...)
}

// nonEmptyRule rejects a candidate that is empty after trimming.
type nonEmptyRule struct{}

func (nonEmptyRule) Name() string { return "non_empty" }

func (nonEmptyRule) Validate(_, _, candidate string) (string, bool) {
	if strings.TrimSpace(candidate) == "" {
		return "enhanced text is empty after trimming", false
	}
	return "", true
}

// notEchoRule guards against a provider echoing the rendered prompt
// back verbatim instead of performing the correction.
type notEchoRule struct{}

func (notEchoRule) Name() string { return "not_echo" }

func (notEchoRule) Validate(renderedPrompt, _, candidate string) (string, bool) {
	if strings.TrimSpace(candidate) == strings.TrimSpace(renderedPrompt) {
		return "enhanced text is identical to the rendered prompt (echo)", false
	}
	return "", true
}

// sanityBoundRule guards against runaway repetition: the candidate must
// not exceed multiplier times the original input's character count
// (not the rendered prompt's, which carries template boilerplate).
type sanityBoundRule struct {
	multiplier int
}

func (sanityBoundRule) Name() string { return "sanity_bound" }

func (r sanityBoundRule) Validate(_, originalText, candidate string) (string, bool) {
	inputLen := utf8.RuneCountInString(originalText)
	outLen := utf8.RuneCountInString(candidate)
	if inputLen == 0 {
		return "", true
	}
	if outLen > inputLen*r.multiplier {
		return fmt.Sprintf("enhanced text (%d chars) exceeds %dx the input length (%d chars)", outLen, r.multiplier, inputLen), false
	}
	return "", true
}
