package adapters

import (
	"fmt"

	"github.com/textenhance/core/pkg/interfaces"
	"github.com/textenhance/core/pkg/types"
)

// Build constructs the concrete adapter for each resolved provider
// config, keyed by its vendor name. Disabled configs are skipped; an
// unrecognized name is an error since the Configuration Resolver should
// never produce one the factory cannot build.
func Build(configs []types.ProviderConfig) ([]interfaces.ProviderAdapter, error) {
	out := make([]interfaces.ProviderAdapter, 0, len(configs))
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		adapter, err := buildOne(cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, withOutboundRateLimit(adapter))
	}
	return out, nil
}

func buildOne(cfg types.ProviderConfig) (interfaces.ProviderAdapter, error) {
	switch cfg.Name {
	case "groq":
		return NewGroq(cfg), nil
	case "deepseek":
		return NewDeepSeek(cfg), nil
	case "gemini":
		return NewGemini(cfg), nil
	case "localllm":
		return NewLocalLLM(cfg), nil
	default:
		return nil, fmt.Errorf("adapters: unrecognized provider %q", cfg.Name)
	}
}
