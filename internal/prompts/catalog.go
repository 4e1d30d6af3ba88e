// Package prompts implements the Prompt Catalog (spec.md §4.4 steps
// 2–4): a static in-memory map of document type to template, augmentable
// by caller overrides, plus an injection-safe single-placeholder
// renderer adapted from the teacher's template parser
// (internal/prompts/template in the retrieval pack teacher), narrowed
// from its multi-field form down to exactly one required placeholder.
package prompts

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/textenhance/core/pkg/types"
)

// placeholderPattern matches the single substitution slot a template may
// contain. Anything else in the template is literal.
var placeholderPattern = regexp.MustCompile(`\{text\}`)

// Template is one entry in the catalog: a system preamble plus a body
// containing exactly one {text} placeholder.
type Template struct {
	DocumentType types.DocumentType
	Preamble     string
	Body         string
}

// SystemPreamble implements interfaces.PromptTemplate.
func (t Template) SystemPreamble() string { return t.Preamble }

// Render substitutes originalText into the template's single {text}
// placeholder literally — no re-expansion, so the substituted text can
// never introduce a second live placeholder.
func (t Template) Render(originalText string) (string, error) {
	if n := len(placeholderPattern.FindAllStringIndex(t.Body, -1)); n != 1 {
		return "", fmt.Errorf("prompts: template for %s must contain exactly one {text} placeholder, found %d", t.DocumentType, n)
	}
	return placeholderPattern.ReplaceAllLiteralString(t.Body, originalText), nil
}

// Catalog holds one Template per DocumentType, always covering every
// enumerated type. Caller overrides replace the default entry for a
// type without needing to touch the others.
type Catalog struct {
	templates map[types.DocumentType]Template
}

// NewCatalog builds the catalog with its built-in default templates.
func NewCatalog() *Catalog {
	c := &Catalog{templates: make(map[types.DocumentType]Template)}
	for _, t := range defaultTemplates() {
		c.templates[t.DocumentType] = t
	}
	return c
}

// Override replaces (or adds) the template used for a document type.
func (c *Catalog) Override(t Template) {
	c.templates[t.DocumentType] = t
}

// TemplateFor fetches a document type's template. A missing type falls
// back to DocumentGeneral, and the caller is told so it can flag the
// fallback in result metadata (spec.md §4.4 step 2).
func (c *Catalog) TemplateFor(dt types.DocumentType) (tpl Template, usedFallback bool) {
	if t, ok := c.templates[dt]; ok {
		return t, false
	}
	return c.templates[types.DocumentGeneral], true
}

func defaultTemplates() []Template {
	const body = "Correct the OCR errors in the following text and return only the corrected text:\n\n{text}"
	return []Template{
		{
			DocumentType: types.DocumentGeneral,
			Preamble:     "You are an OCR correction assistant. Fix digit/letter confusions, restore missing diacritics, and normalize punctuation and line breaks. Return only the corrected text, with no commentary.",
			Body:         body,
		},
		{
			DocumentType: types.DocumentCode,
			Preamble:     "You are an OCR correction assistant specialized in source code. Preserve indentation, identifiers, and syntax exactly; fix only OCR artifacts such as misread brackets, quotes, and operators. Return only the corrected code.",
			Body:         body,
		},
		{
			DocumentType: types.DocumentInvoice,
			Preamble:     "You are an OCR correction assistant specialized in invoices and receipts. Preserve currency amounts, dates, and line-item structure; fix digit/letter confusions in totals and dates. Return only the corrected text.",
			Body:         body,
		},
		{
			DocumentType: types.DocumentForm,
			Preamble:     "You are an OCR correction assistant specialized in structured forms. Preserve field labels and their associated values; fix OCR artifacts without merging or reordering fields. Return only the corrected text.",
			Body:         body,
		},
		{
			DocumentType: types.DocumentHandwritten,
			Preamble:     "You are an OCR correction assistant specialized in handwritten text. Handwriting OCR tends to substitute visually similar characters; reconstruct the most likely intended words while preserving the original structure. Return only the corrected text.",
			Body:         body,
		},
		{
			DocumentType: types.DocumentMultilingual,
			Preamble:     "You are an OCR correction assistant specialized in multilingual text. Restore missing diacritics and accents for the text's actual language(s) without translating. Return only the corrected text.",
			Body:         body,
		},
	}
}

// Regex-based heuristics over the raw text, used by Classify for the
// Orchestrator's classification step (spec.md §4.4 step 1).
var (
	codeFenceRe    = regexp.MustCompile("```|\\bfunc\\b|\\bclass\\b|\\bdef\\b|;\\s*$|\\{\\s*$")
	currencyDateRe = regexp.MustCompile(`[$€£¥]\s?\d|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	formFieldRe    = regexp.MustCompile(`(?m)^[A-Za-z][A-Za-z0-9 ]{1,30}:\s*.{0,40}$`)
)

// Classify applies the closed-enumeration heuristics of spec.md §4.4
// step 1. It never returns DocumentUnknown: unmatched text defaults to
// DocumentGeneral.
func Classify(text string) types.DocumentType {
	switch {
	case codeFenceRe.MatchString(text):
		return types.DocumentCode
	case currencyDateRe.MatchString(text):
		return types.DocumentInvoice
	case matchesEnoughLines(formFieldRe, text):
		return types.DocumentForm
	default:
		return types.DocumentGeneral
	}
}

func matchesEnoughLines(re *regexp.Regexp, text string) bool {
	lines := strings.Split(text, "\n")
	matches := 0
	for _, l := range lines {
		if re.MatchString(l) {
			matches++
		}
	}
	return matches >= 2
}
