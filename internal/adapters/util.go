package adapters

import (
	"strconv"
	"time"
)

// retryAfterFromHeader parses a Retry-After header value given in
// seconds. A missing or unparsable header yields zero, meaning "no
// vendor-supplied hint".
func retryAfterFromHeader(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
