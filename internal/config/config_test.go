package config

import (
	"os"
	"testing"
	"time"
)

func TestResolveAppliesPriorityAndDefaults(t *testing.T) {
	cfg := &AppConfig{
		Enhancement: DefaultEnhancementConfig(),
		Priority:    []string{"groq", "deepseek"},
		Providers: map[string]rawProviderConfig{
			"groq":     {Credential: "key1", TextModel: "llama"},
			"deepseek": {Credential: "key2", TextModel: "deepseek-chat"},
		},
	}

	resolver := NewResolver("TEXTENHANCE")
	resolved, err := resolver.Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("len(resolved) = %d, want 2", len(resolved))
	}
	if resolved[0].Name != "groq" || resolved[0].Priority != 0 {
		t.Errorf("resolved[0] = %+v, want groq at priority 0", resolved[0])
	}
	if resolved[1].Name != "deepseek" || resolved[1].Priority != 1 {
		t.Errorf("resolved[1] = %+v, want deepseek at priority 1", resolved[1])
	}
	if resolved[0].Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s default", resolved[0].Timeout)
	}
}

func TestResolveDisablesProviderAbsentFromPriority(t *testing.T) {
	cfg := &AppConfig{
		Enhancement: DefaultEnhancementConfig(),
		Priority:    []string{"groq"},
		Providers: map[string]rawProviderConfig{
			"groq":   {Credential: "key1", TextModel: "llama"},
			"gemini": {Credential: "key2", TextModel: "gemini-flash"},
		},
	}
	resolver := NewResolver("TEXTENHANCE")
	resolved, err := resolver.Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	var gemini *struct{ enabled bool }
	for _, pc := range resolved {
		if pc.Name == "gemini" {
			gemini = &struct{ enabled bool }{pc.Enabled}
		}
	}
	if gemini == nil {
		t.Fatal("gemini missing from resolved output")
	}
	if gemini.enabled {
		t.Error("gemini should be disabled when absent from priority list")
	}
}

func TestResolveRejectsDuplicatePriorityEntry(t *testing.T) {
	cfg := &AppConfig{
		Enhancement: DefaultEnhancementConfig(),
		Priority:    []string{"groq", "groq"},
		Providers:   map[string]rawProviderConfig{"groq": {Credential: "k", TextModel: "m"}},
	}
	resolver := NewResolver("TEXTENHANCE")
	if _, err := resolver.Resolve(cfg); err == nil {
		t.Fatal("Resolve() error = nil, want duplicate-priority error")
	}
}

func TestResolveRejectsMissingCredentialUnlessLocalLLM(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *AppConfig
		wantErr bool
	}{
		{
			name: "groq without credential",
			cfg: &AppConfig{
				Enhancement: DefaultEnhancementConfig(),
				Priority:    []string{"groq"},
				Providers:   map[string]rawProviderConfig{"groq": {TextModel: "m"}},
			},
			wantErr: true,
		},
		{
			name: "localllm without credential",
			cfg: &AppConfig{
				Enhancement: DefaultEnhancementConfig(),
				Priority:    []string{"localllm"},
				Providers:   map[string]rawProviderConfig{"localllm": {TextModel: "m"}},
			},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewResolver("TEXTENHANCE")
			_, err := resolver.Resolve(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveCredentialEnvOverridesFile(t *testing.T) {
	t.Setenv("TEXTENHANCE_GROQ_CREDENTIAL", "from-env")
	cfg := &AppConfig{
		Enhancement: DefaultEnhancementConfig(),
		Priority:    []string{"groq"},
		Providers:   map[string]rawProviderConfig{"groq": {Credential: "from-file", TextModel: "m"}},
	}
	resolver := NewResolver("TEXTENHANCE")
	resolved, err := resolver.Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved[0].Credential != "from-env" {
		t.Errorf("Credential = %q, want env override %q", resolved[0].Credential, "from-env")
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/providers.yaml"
	contents := `
enhancement:
  enabled: true
  timeout_seconds: 45
  max_retries: 3
priority:
  - groq
providers:
  groq:
    credential: "k"
    text_model: "llama"
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML() error = %v", err)
	}
	if cfg.Enhancement.TimeoutSeconds != 45 {
		t.Errorf("TimeoutSeconds = %d, want 45", cfg.Enhancement.TimeoutSeconds)
	}
	if !cfg.Enhancement.UseVisionWhenAvailable {
		t.Error("UseVisionWhenAvailable should default true when omitted")
	}
}
