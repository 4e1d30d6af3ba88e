package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/textenhance/core/pkg/types"
)

func newDeepSeekTestServer(t *testing.T, handler http.HandlerFunc) *DeepSeekAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := types.ProviderConfig{
		Name:       "deepseek",
		Credential: "ds-key",
		BaseURL:    server.URL,
		TextModel:  "deepseek-chat",
		Timeout:    5 * time.Second,
		MaxRetries: 0,
		Parameters: map[string]interface{}{"code_model": "deepseek-coder"},
	}
	return NewDeepSeek(cfg)
}

func TestDeepSeekSelectsCodeModelForCodeDocuments(t *testing.T) {
	var gotModel string
	adapter := newDeepSeekTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req openAIShapeRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model

		resp := openAIShapeResponse{}
		resp.Choices = []struct {
			Message openAIShapeMessage `json:"message"`
		}{{Message: openAIShapeMessage{Content: "fixed code"}}}
		json.NewEncoder(w).Encode(resp)
	})

	_, _, err := adapter.CompleteText(context.Background(), []types.Message{
		{Role: types.RoleUser, Content: "func main() {"},
	}, types.DocumentCode)
	if err != nil {
		t.Fatalf("CompleteText() error = %v", err)
	}
	if gotModel != "deepseek-coder" {
		t.Errorf("model used = %q, want deepseek-coder", gotModel)
	}
}

func TestDeepSeekUsesGeneralModelForNonCodeDocuments(t *testing.T) {
	var gotModel string
	adapter := newDeepSeekTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req openAIShapeRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model

		resp := openAIShapeResponse{}
		resp.Choices = []struct {
			Message openAIShapeMessage `json:"message"`
		}{{Message: openAIShapeMessage{Content: "fixed text"}}}
		json.NewEncoder(w).Encode(resp)
	})

	_, _, err := adapter.CompleteText(context.Background(), []types.Message{
		{Role: types.RoleUser, Content: "plain text"},
	}, types.DocumentGeneral)
	if err != nil {
		t.Fatalf("CompleteText() error = %v", err)
	}
	if gotModel != "deepseek-chat" {
		t.Errorf("model used = %q, want deepseek-chat", gotModel)
	}
}

func TestDeepSeekFallsBackToTextModelWithoutCodeModelParameter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(server.Close)
	cfg := types.ProviderConfig{
		Name: "deepseek", Credential: "k", BaseURL: server.URL,
		TextModel: "deepseek-chat", Timeout: time.Second,
	}
	adapter := NewDeepSeek(cfg)
	if got := adapter.modelFor(types.DocumentCode); got != "deepseek-chat" {
		t.Errorf("modelFor(code) = %q, want deepseek-chat when no code_model is configured", got)
	}
}
