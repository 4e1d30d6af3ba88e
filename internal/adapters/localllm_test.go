package adapters

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/textenhance/core/pkg/types"
)

func newLocalLLMTestServer(t *testing.T, handler http.HandlerFunc) *LocalLLMAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := types.ProviderConfig{
		Name:      "localllm",
		BaseURL:   server.URL,
		TextModel: "local-model",
		Timeout:   5 * time.Second,
	}
	return NewLocalLLM(cfg)
}

func TestLocalLLMCompleteTextRequiresNoCredential(t *testing.T) {
	adapter := newLocalLLMTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("Authorization header = %q, want none for LocalLLM", auth)
		}
		resp := localChatResponse{}
		resp.Choices = []struct {
			Message localChatMessage `json:"message"`
		}{{Message: localChatMessage{Content: "fixed"}}}
		json.NewEncoder(w).Encode(resp)
	})

	text, _, err := adapter.CompleteText(context.Background(), []types.Message{
		{Role: types.RoleUser, Content: "brok3n"},
	}, types.DocumentGeneral)
	if err != nil {
		t.Fatalf("CompleteText() error = %v", err)
	}
	if text != "fixed" {
		t.Errorf("text = %q, want fixed", text)
	}
}

func TestLocalLLMCompleteVisionEmbedsBase64Image(t *testing.T) {
	image := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	var gotImage string
	adapter := newLocalLLMTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req localChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) == 1 {
			gotImage = req.Messages[0].Image
		}
		resp := localChatResponse{}
		resp.Choices = []struct {
			Message localChatMessage `json:"message"`
		}{{Message: localChatMessage{Content: "described"}}}
		json.NewEncoder(w).Encode(resp)
	})

	_, _, err := adapter.CompleteVision(context.Background(), "describe this", image, types.DocumentGeneral)
	if err != nil {
		t.Fatalf("CompleteVision() error = %v", err)
	}
	if gotImage != base64.StdEncoding.EncodeToString(image) {
		t.Errorf("embedded image = %q, want base64 of input bytes", gotImage)
	}
}

func TestLocalLLMHealth(t *testing.T) {
	adapter := newLocalLLMTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		resp := localChatResponse{}
		resp.Choices = []struct {
			Message localChatMessage `json:"message"`
		}{{Message: localChatMessage{Content: "pong"}}}
		json.NewEncoder(w).Encode(resp)
	})
	if err := adapter.Health(context.Background()); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}
