package services

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Xreatlabs/Helium-sub000/internal/models"
)

// rateLimitState remembers the last rate-limit headers the panel sent.
// Missing or malformed headers leave the previous values untouched.
type rateLimitState struct {
	mu        sync.RWMutex
	remaining *int
	resetAt   *time.Time
}

func (s *rateLimitState) observe(h http.Header) {
	remaining, remOK := parseHeaderInt(h.Get("X-Ratelimit-Remaining"))
	reset, resetOK := parseHeaderInt(h.Get("X-Ratelimit-Reset"))
	if !remOK && !resetOK {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if remOK {
		s.remaining = &remaining
	}
	if resetOK {
		at := time.Unix(int64(reset), 0).UTC()
		s.resetAt = &at
	}
}

// snapshot returns copies so callers can never mutate the live state.
func (s *rateLimitState) snapshot() models.RateLimitInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var info models.RateLimitInfo
	if s.remaining != nil {
		r := *s.remaining
		info.Remaining = &r
	}
	if s.resetAt != nil {
		at := *s.resetAt
		info.ResetAt = &at
	}
	return info
}

func parseHeaderInt(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
