package adapters

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/textenhance/core/pkg/errors"
	"github.com/textenhance/core/pkg/interfaces"
	"github.com/textenhance/core/pkg/types"
)

const groqCeiling = 4096

// GroqAdapter speaks Groq's OpenAI-compatible chat-completion API
// (spec.md §4.1). It has no vision model in this core.
type GroqAdapter struct {
	cfg    types.ProviderConfig
	client *resty.Client
}

// NewGroq builds a Groq adapter from its resolved configuration.
func NewGroq(cfg types.ProviderConfig) *GroqAdapter {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.groq.com/openai/v1/chat/completions"
	}
	return &GroqAdapter{
		cfg:    cfg,
		client: resty.New().SetTimeout(cfg.Timeout).SetBaseURL(base),
	}
}

func (g *GroqAdapter) Name() string          { return "groq" }
func (g *GroqAdapter) Model() string         { return g.cfg.TextModel }
func (g *GroqAdapter) SupportsVision() bool  { return false }

func (g *GroqAdapter) CompleteText(ctx context.Context, messages []types.Message, _ types.DocumentType) (string, *types.TokenUsage, error) {
	return withAdapterRetry(ctx, g.cfg.MaxRetries, func() (string, *types.TokenUsage, error) {
		return callOpenAIShape(ctx, g.client, g.Name(), "", fmtAuthBearer(g.cfg.Credential), g.cfg.TextModel, messages, estimateMaxOutputTokens(messages, groqCeiling))
	})
}

func (g *GroqAdapter) Health(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, _, err := callOpenAIShape(hctx, g.client, g.Name(), "", fmtAuthBearer(g.cfg.Credential), g.cfg.TextModel, []types.Message{
		{Role: types.RoleUser, Content: "ping"},
	}, 1)
	if err != nil {
		var pe *errors.ProviderError
		if errors.As(err, &pe) {
			return pe
		}
		return errors.Wrap(g.Name(), types.CauseTransport, "health probe failed", err)
	}
	return nil
}

var _ interfaces.ProviderAdapter = (*GroqAdapter)(nil)
