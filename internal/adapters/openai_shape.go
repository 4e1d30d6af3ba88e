package adapters

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	aerrors "github.com/textenhance/core/pkg/errors"
	"github.com/textenhance/core/pkg/types"
)

// openAIShapeMessage and openAIShapeRequest/Response model the
// OpenAI-compatible chat-completion wire format that Groq and DeepSeek
// both speak (spec.md §4.1): top-level choices[0].message.content.
type openAIShapeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIShapeRequest struct {
	Model       string                `json:"model"`
	Messages    []openAIShapeMessage  `json:"messages"`
	Temperature float64               `json:"temperature"`
	MaxTokens   int                   `json:"max_tokens,omitempty"`
}

type openAIShapeResponse struct {
	Choices []struct {
		Message openAIShapeMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// openAIShapeErrorBody is the generic OpenAI-compatible error envelope;
// both Groq and DeepSeek use it.
type openAIShapeErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// callOpenAIShape performs one HTTP round trip against an
// OpenAI-compatible chat completion endpoint and returns the corrected
// text or a classified *errors.ProviderError. It is shared by Groq and
// DeepSeek, which differ only in base URL, auth header, and (for
// DeepSeek) model selection by document type.
func callOpenAIShape(ctx context.Context, client *resty.Client, providerName, url, authHeader, model string, messages []types.Message, maxOutputTokens int) (string, *types.TokenUsage, error) {
	req := openAIShapeRequest{
		Model:       model,
		Temperature: 0.1,
		MaxTokens:   maxOutputTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openAIShapeMessage{Role: string(m.Role), Content: m.Content})
	}

	var body openAIShapeResponse
	var errBody openAIShapeErrorBody
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", authHeader).
		SetBody(req).
		SetResult(&body).
		SetError(&errBody).
		Post(url)
	if err != nil {
		return "", nil, aerrors.Wrap(providerName, types.CauseTransport, "http request failed", err)
	}

	if resp.IsError() {
		cause := classifyHTTPStatus(resp.StatusCode(), string(resp.Body()))
		pe := aerrors.New(providerName, cause, errBody.Error.Message).WithStatusCode(resp.StatusCode())
		if ra := retryAfterFromHeader(resp.Header().Get("Retry-After")); ra > 0 {
			pe = pe.WithRetryAfter(ra)
		}
		return "", nil, pe
	}

	if len(body.Choices) == 0 || body.Choices[0].Message.Content == "" {
		return "", nil, aerrors.New(providerName, types.CauseBadResponse, "empty choices/content in response")
	}

	usage := &types.TokenUsage{
		PromptTokens:     body.Usage.PromptTokens,
		CompletionTokens: body.Usage.CompletionTokens,
	}
	return body.Choices[0].Message.Content, usage, nil
}

func estimateMaxOutputTokens(messages []types.Message, ceiling int) int {
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}
	estTokens := chars / 4
	out := estTokens * 2
	if out < 256 {
		out = 256
	}
	if out > ceiling {
		out = ceiling
	}
	return out
}

func fmtAuthBearer(credential string) string {
	return fmt.Sprintf("Bearer %s", credential)
}
