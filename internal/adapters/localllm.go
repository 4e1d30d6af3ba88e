package adapters

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/textenhance/core/pkg/errors"
	"github.com/textenhance/core/pkg/interfaces"
	"github.com/textenhance/core/pkg/types"
)

const localLLMCeiling = 4096

// localChatMessage mirrors the OpenAI-compatible shape most local model
// servers (llama.cpp server, text-generation-webui, Ollama's
// OpenAI-compatible endpoint) expose, with an optional base64 image
// field for vision requests.
type localChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

type localChatRequest struct {
	Model       string              `json:"model"`
	Messages    []localChatMessage  `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type localChatResponse struct {
	Choices []struct {
		Message localChatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type localChatErrorBody struct {
	Error string `json:"error"`
}

// LocalLLMAdapter speaks a locally hosted model server's chat endpoint.
// Per spec.md §4.1 it carries no credential; BaseURL is host-provided.
type LocalLLMAdapter struct {
	cfg    types.ProviderConfig
	client *resty.Client
}

// NewLocalLLM builds a LocalLLM adapter. cfg.Credential is ignored.
func NewLocalLLM(cfg types.ProviderConfig) *LocalLLMAdapter {
	base := cfg.BaseURL
	if base == "" {
		base = "http://localhost:8000/v1/chat/completions"
	}
	return &LocalLLMAdapter{
		cfg:    cfg,
		client: resty.New().SetTimeout(cfg.Timeout).SetBaseURL(base),
	}
}

func (l *LocalLLMAdapter) Name() string         { return "localllm" }
func (l *LocalLLMAdapter) Model() string        { return l.cfg.TextModel }
func (l *LocalLLMAdapter) SupportsVision() bool { return l.cfg.SupportsVision() }

func (l *LocalLLMAdapter) do(ctx context.Context, model string, messages []localChatMessage, maxOutputTokens int) (string, *types.TokenUsage, error) {
	req := localChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.1,
		MaxTokens:   maxOutputTokens,
	}

	var body localChatResponse
	var errBody localChatErrorBody
	resp, err := l.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&body).
		SetError(&errBody).
		Post("")
	if err != nil {
		return "", nil, errors.Wrap(l.Name(), types.CauseTransport, "http request failed", err)
	}

	if resp.IsError() {
		cause := classifyHTTPStatus(resp.StatusCode(), string(resp.Body()))
		return "", nil, errors.New(l.Name(), cause, errBody.Error).WithStatusCode(resp.StatusCode())
	}

	if len(body.Choices) == 0 || body.Choices[0].Message.Content == "" {
		return "", nil, errors.New(l.Name(), types.CauseBadResponse, "empty choices/content in response")
	}

	usage := &types.TokenUsage{
		PromptTokens:     body.Usage.PromptTokens,
		CompletionTokens: body.Usage.CompletionTokens,
	}
	return body.Choices[0].Message.Content, usage, nil
}

func (l *LocalLLMAdapter) CompleteText(ctx context.Context, messages []types.Message, _ types.DocumentType) (string, *types.TokenUsage, error) {
	local := make([]localChatMessage, 0, len(messages))
	for _, m := range messages {
		local = append(local, localChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return withAdapterRetry(ctx, l.cfg.MaxRetries, func() (string, *types.TokenUsage, error) {
		return l.do(ctx, l.cfg.TextModel, local, estimateMaxOutputTokens(messages, localLLMCeiling))
	})
}

func (l *LocalLLMAdapter) CompleteVision(ctx context.Context, promptText string, image []byte, _ types.DocumentType) (string, *types.TokenUsage, error) {
	model := l.cfg.VisionModel
	if model == "" {
		model = l.cfg.TextModel
	}
	local := []localChatMessage{{
		Role:    string(types.RoleUser),
		Content: promptText,
		Image:   base64.StdEncoding.EncodeToString(image),
	}}
	return withAdapterRetry(ctx, l.cfg.MaxRetries, func() (string, *types.TokenUsage, error) {
		return l.do(ctx, model, local, estimateMaxOutputTokens([]types.Message{{Content: promptText}}, localLLMCeiling))
	})
}

func (l *LocalLLMAdapter) Health(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, _, err := l.do(hctx, l.cfg.TextModel, []localChatMessage{{Role: string(types.RoleUser), Content: "ping"}}, 1)
	if err != nil {
		var pe *errors.ProviderError
		if errors.As(err, &pe) {
			return pe
		}
		return errors.Wrap(l.Name(), types.CauseTransport, "health probe failed", err)
	}
	return nil
}

var (
	_ interfaces.ProviderAdapter = (*LocalLLMAdapter)(nil)
	_ interfaces.VisionAdapter   = (*LocalLLMAdapter)(nil)
)
