package adapters

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/textenhance/core/pkg/errors"
	"github.com/textenhance/core/pkg/interfaces"
	"github.com/textenhance/core/pkg/types"
)

const geminiCeiling = 8192

// geminiPart is one element of a Gemini contents[].parts array: either
// a text part or an inline_data image part, never both.
type geminiPart struct {
	Text       string           `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type geminiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GeminiAdapter speaks Google's Gemini generateContent wire format
// (spec.md §4.1): contents array with role/parts, auth via URL query
// parameter, and an optional inline_data image part for vision.
type GeminiAdapter struct {
	cfg    types.ProviderConfig
	client *resty.Client
}

// NewGemini builds a Gemini adapter from its resolved configuration.
func NewGemini(cfg types.ProviderConfig) *GeminiAdapter {
	base := cfg.BaseURL
	if base == "" {
		base = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	return &GeminiAdapter{
		cfg:    cfg,
		client: resty.New().SetTimeout(cfg.Timeout).SetBaseURL(base),
	}
}

func (g *GeminiAdapter) Name() string         { return "gemini" }
func (g *GeminiAdapter) Model() string        { return g.cfg.TextModel }
func (g *GeminiAdapter) SupportsVision() bool { return g.cfg.SupportsVision() }

func (g *GeminiAdapter) urlFor(model string) string {
	return fmt.Sprintf("/%s:generateContent", model)
}

func (g *GeminiAdapter) do(ctx context.Context, model string, contents []geminiContent, maxOutputTokens int) (string, *types.TokenUsage, error) {
	req := geminiRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.1,
			MaxOutputTokens: maxOutputTokens,
		},
	}

	var body geminiResponse
	var errBody geminiErrorBody
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", g.cfg.Credential).
		SetBody(req).
		SetResult(&body).
		SetError(&errBody).
		Post(g.urlFor(model))
	if err != nil {
		return "", nil, errors.Wrap(g.Name(), types.CauseTransport, "http request failed", err)
	}

	if resp.IsError() {
		cause := classifyHTTPStatus(resp.StatusCode(), string(resp.Body()))
		return "", nil, errors.New(g.Name(), cause, errBody.Error.Message).WithStatusCode(resp.StatusCode())
	}

	if len(body.Candidates) == 0 || len(body.Candidates[0].Content.Parts) == 0 || body.Candidates[0].Content.Parts[0].Text == "" {
		return "", nil, errors.New(g.Name(), types.CauseBadResponse, "empty candidates/parts in response")
	}

	usage := &types.TokenUsage{
		PromptTokens:     body.UsageMetadata.PromptTokenCount,
		CompletionTokens: body.UsageMetadata.CandidatesTokenCount,
	}
	return body.Candidates[0].Content.Parts[0].Text, usage, nil
}

func (g *GeminiAdapter) CompleteText(ctx context.Context, messages []types.Message, _ types.DocumentType) (string, *types.TokenUsage, error) {
	contents := messagesToGeminiContents(messages, nil)
	return withAdapterRetry(ctx, g.cfg.MaxRetries, func() (string, *types.TokenUsage, error) {
		return g.do(ctx, g.cfg.TextModel, contents, estimateMaxOutputTokens(messages, geminiCeiling))
	})
}

func (g *GeminiAdapter) CompleteVision(ctx context.Context, promptText string, image []byte, _ types.DocumentType) (string, *types.TokenUsage, error) {
	model := g.cfg.VisionModel
	if model == "" {
		model = g.cfg.TextModel
	}
	contents := messagesToGeminiContents([]types.Message{{Role: types.RoleUser, Content: promptText}}, image)
	return withAdapterRetry(ctx, g.cfg.MaxRetries, func() (string, *types.TokenUsage, error) {
		return g.do(ctx, model, contents, estimateMaxOutputTokens([]types.Message{{Content: promptText}}, geminiCeiling))
	})
}

func (g *GeminiAdapter) Health(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, _, err := g.do(hctx, g.cfg.TextModel, messagesToGeminiContents([]types.Message{{Role: types.RoleUser, Content: "ping"}}, nil), 1)
	if err != nil {
		var pe *errors.ProviderError
		if errors.As(err, &pe) {
			return pe
		}
		return errors.Wrap(g.Name(), types.CauseTransport, "health probe failed", err)
	}
	return nil
}

// messagesToGeminiContents translates the neutral message form into
// Gemini's contents array, folding a system turn into the leading user
// turn (Gemini has no first-class system role in generateContent) and
// attaching an inline_data image part when present.
func messagesToGeminiContents(messages []types.Message, image []byte) []geminiContent {
	var system string
	var userParts []geminiPart
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			system = m.Content
		default:
			text := m.Content
			if system != "" {
				text = system + "\n\n" + text
				system = ""
			}
			userParts = append(userParts, geminiPart{Text: text})
		}
	}
	if image != nil {
		userParts = append(userParts, geminiPart{InlineData: &geminiInlineData{
			MimeType: "image/png",
			Data:     base64.StdEncoding.EncodeToString(image),
		}})
	}
	return []geminiContent{{Role: "user", Parts: userParts}}
}

var (
	_ interfaces.ProviderAdapter = (*GeminiAdapter)(nil)
	_ interfaces.VisionAdapter   = (*GeminiAdapter)(nil)
)
