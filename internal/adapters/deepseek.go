package adapters

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/textenhance/core/pkg/errors"
	"github.com/textenhance/core/pkg/interfaces"
	"github.com/textenhance/core/pkg/types"
)

const deepseekCeiling = 4096

// DeepSeekAdapter speaks DeepSeek's OpenAI-compatible chat-completion
// API. Per spec.md §4.1 it selects between a general model and a
// code-specialized model based on the documentType hint.
type DeepSeekAdapter struct {
	cfg         types.ProviderConfig
	client      *resty.Client
	codeModel   string
}

// NewDeepSeek builds a DeepSeek adapter. A code-specialized model name
// may be supplied via cfg.Parameters["code_model"]; absent that, the
// general text model is used for code documents too.
func NewDeepSeek(cfg types.ProviderConfig) *DeepSeekAdapter {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.deepseek.com/chat/completions"
	}
	codeModel := cfg.TextModel
	if cfg.Parameters != nil {
		if v, ok := cfg.Parameters["code_model"].(string); ok && v != "" {
			codeModel = v
		}
	}
	return &DeepSeekAdapter{
		cfg:       cfg,
		client:    resty.New().SetTimeout(cfg.Timeout).SetBaseURL(base),
		codeModel: codeModel,
	}
}

func (d *DeepSeekAdapter) Name() string         { return "deepseek" }
func (d *DeepSeekAdapter) Model() string        { return d.cfg.TextModel }
func (d *DeepSeekAdapter) SupportsVision() bool { return false }

func (d *DeepSeekAdapter) modelFor(documentType types.DocumentType) string {
	if documentType == types.DocumentCode {
		return d.codeModel
	}
	return d.cfg.TextModel
}

func (d *DeepSeekAdapter) CompleteText(ctx context.Context, messages []types.Message, documentType types.DocumentType) (string, *types.TokenUsage, error) {
	model := d.modelFor(documentType)
	return withAdapterRetry(ctx, d.cfg.MaxRetries, func() (string, *types.TokenUsage, error) {
		return callOpenAIShape(ctx, d.client, d.Name(), "", fmtAuthBearer(d.cfg.Credential), model, messages, estimateMaxOutputTokens(messages, deepseekCeiling))
	})
}

func (d *DeepSeekAdapter) Health(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, _, err := callOpenAIShape(hctx, d.client, d.Name(), "", fmtAuthBearer(d.cfg.Credential), d.cfg.TextModel, []types.Message{
		{Role: types.RoleUser, Content: "ping"},
	}, 1)
	if err != nil {
		var pe *errors.ProviderError
		if errors.As(err, &pe) {
			return pe
		}
		return errors.Wrap(d.Name(), types.CauseTransport, "health probe failed", err)
	}
	return nil
}

var _ interfaces.ProviderAdapter = (*DeepSeekAdapter)(nil)
