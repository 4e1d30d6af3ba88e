package adapters

import (
	"testing"
	"time"
)

func TestRetryAfterFromHeader(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Duration
	}{
		{"empty header", "", 0},
		{"valid seconds", "5", 5 * time.Second},
		{"negative value", "-1", 0},
		{"non-numeric", "soon", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryAfterFromHeader(tt.in); got != tt.want {
				t.Errorf("retryAfterFromHeader(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
