package types

import (
	"testing"
	"time"
)

func TestProviderConfigSupportsVision(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProviderConfig
		want bool
	}{
		{"no vision model", ProviderConfig{TextModel: "m"}, false},
		{"vision model set", ProviderConfig{TextModel: "m", VisionModel: "v"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.SupportsVision(); got != tt.want {
				t.Errorf("SupportsVision() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProviderStatusInCooldown(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		status ProviderStatus
		want   bool
	}{
		{"no cooldown set", ProviderStatus{}, false},
		{"cooldown in future", ProviderStatus{CooldownUntil: now.Add(time.Minute)}, true},
		{"cooldown expired", ProviderStatus{CooldownUntil: now.Add(-time.Minute)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.InCooldown(now); got != tt.want {
				t.Errorf("InCooldown() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnhancementResultSucceeded(t *testing.T) {
	tests := []struct {
		name   string
		result EnhancementResult
		want   bool
	}{
		{"empty enhanced text", EnhancementResult{}, false},
		{"populated enhanced text", EnhancementResult{EnhancedText: "fixed"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Succeeded(); got != tt.want {
				t.Errorf("Succeeded() = %v, want %v", got, tt.want)
			}
		})
	}
}
