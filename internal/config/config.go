// Package config implements the Configuration Resolver: it reads the
// options enumerated in spec.md §6, validates them, and produces the
// immutable slice of types.ProviderConfig the Registry is built from.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/textenhance/core/pkg/types"
	"gopkg.in/yaml.v3"
)

// EnhancementConfig mirrors the enhancement.* options of spec.md §6.
type EnhancementConfig struct {
	Enabled               bool          `yaml:"enabled"`
	TimeoutSeconds        int           `yaml:"timeout_seconds"`
	MaxRetries            int           `yaml:"max_retries"`
	UseVisionWhenAvailable bool         `yaml:"use_vision_when_available"`
}

// rawProviderConfig is the YAML shape for one provider entry before
// credential env-var resolution and default application.
type rawProviderConfig struct {
	Credential  string                 `yaml:"credential"`
	BaseURL     string                 `yaml:"base_url"`
	TextModel   string                 `yaml:"text_model"`
	VisionModel string                 `yaml:"vision_model,omitempty"`
	Parameters  map[string]interface{} `yaml:"parameters,omitempty"`
}

// AppConfig is the root configuration document.
type AppConfig struct {
	Enhancement EnhancementConfig            `yaml:"enhancement"`
	Priority    []string                     `yaml:"priority"`
	Providers   map[string]rawProviderConfig `yaml:"providers"`
}

// DefaultEnhancementConfig returns spec.md §6's stated defaults.
func DefaultEnhancementConfig() EnhancementConfig {
	return EnhancementConfig{
		Enabled:                true,
		TimeoutSeconds:         30,
		MaxRetries:             2,
		UseVisionWhenAvailable: true,
	}
}

// Resolver turns a loaded AppConfig into the immutable, validated
// []types.ProviderConfig the rest of the system depends on. Any name
// absent from Priority is disabled, per spec.md §6.
type Resolver struct {
	envPrefix string
}

// NewResolver builds a Resolver. envPrefix namespaces the credential
// environment-variable lookup, e.g. "TEXTENHANCE" for
// TEXTENHANCE_GROQ_CREDENTIAL.
func NewResolver(envPrefix string) *Resolver {
	return &Resolver{envPrefix: envPrefix}
}

// Resolve validates cfg and produces a priority-ordered list of
// ProviderConfig. Credentials found in the environment override the
// file value (so secrets need never be committed).
func (r *Resolver) Resolve(cfg *AppConfig) ([]types.ProviderConfig, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config: nil AppConfig")
	}

	priorityOf := make(map[string]int, len(cfg.Priority))
	for i, name := range cfg.Priority {
		if _, dup := priorityOf[name]; dup {
			return nil, fmt.Errorf("config: duplicate provider %q in priority list", name)
		}
		priorityOf[name] = i
	}

	timeout := time.Duration(cfg.Enhancement.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.Enhancement.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	out := make([]types.ProviderConfig, 0, len(cfg.Providers))
	seen := make(map[string]bool, len(cfg.Providers))
	for name, raw := range cfg.Providers {
		if seen[name] {
			return nil, fmt.Errorf("config: duplicate provider name %q", name)
		}
		seen[name] = true

		priority, enabled := priorityOf[name]
		if !enabled {
			// Absent from the priority list: disabled, but still
			// recorded so the Registry can report it in a health
			// snapshot as unavailable rather than unknown.
			priority = len(cfg.Priority) + len(out)
		}

		credential := r.resolveCredential(name, raw.Credential)

		pc := types.ProviderConfig{
			Name:        name,
			Enabled:     enabled,
			Credential:  credential,
			BaseURL:     raw.BaseURL,
			TextModel:   raw.TextModel,
			VisionModel: raw.VisionModel,
			Priority:    priority,
			Timeout:     timeout,
			MaxRetries:  maxRetries,
			Parameters:  raw.Parameters,
		}

		if enabled {
			if err := validateEnabled(pc); err != nil {
				return nil, err
			}
		}

		out = append(out, pc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})

	return out, nil
}

func validateEnabled(pc types.ProviderConfig) error {
	if pc.Name == "" {
		return fmt.Errorf("config: provider name cannot be empty")
	}
	// LocalLLM is credential-free by design (spec.md §4.1): no
	// credential check for it.
	if pc.Name != "localllm" && pc.Credential == "" {
		return fmt.Errorf("config: provider %q is enabled but has no credential", pc.Name)
	}
	if pc.TextModel == "" {
		return fmt.Errorf("config: provider %q is enabled but has no text_model", pc.Name)
	}
	return nil
}

func (r *Resolver) resolveCredential(providerName, fileValue string) string {
	envKey := r.envPrefix + "_" + strings.ToUpper(providerName) + "_CREDENTIAL"
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fileValue
}

// LoadYAML reads and parses an AppConfig from a YAML file, applying
// enhancement defaults for any fields the file omits. A value the file
// sets explicitly, including false or 0, is kept.
func LoadYAML(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &AppConfig{Enhancement: DefaultEnhancementConfig()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
