package adapters

import (
	"strings"

	"github.com/textenhance/core/pkg/types"
)

// classifyHTTPStatus maps an HTTP status code plus response body to the
// closed TypedError taxonomy of spec.md §4.1. Vendor adapters call this
// after any non-2xx response and use its result as the cause directly;
// no vendor-specific signal (e.g. the status field of Gemini's error
// envelope) is consulted.
func classifyHTTPStatus(status int, body string) types.ErrorCause {
	lower := strings.ToLower(body)
	switch {
	case status == 401:
		return types.CauseInvalidAuth
	case status == 429:
		return types.CauseRateLimited
	case status == 403 && containsAny(lower, "quota", "credits", "exhausted", "daily limit reached"):
		return types.CauseQuotaExceeded
	case status == 403 && strings.Contains(lower, "rate"):
		return types.CauseRateLimited
	case status >= 400 && status < 500:
		return types.CauseFatal
	default:
		return types.CauseBadResponse
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
