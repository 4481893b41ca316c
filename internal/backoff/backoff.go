package backoff

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxDelay caps every delay this package returns, computed or server supplied.
const maxDelay = 10 * time.Minute

// Exponential returns base * 2^attempt, where attempt is 0 for the first retry.
func Exponential(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	factor := math.Pow(2, float64(attempt))
	d := float64(base) * factor
	if d > float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(d)
}

// ParseRetryAfter parses a Retry-After value.
// Accepts seconds (fractional allowed, e.g. "1.5") or an HTTP date.
// Returns the duration and true if parsing was successful.
func ParseRetryAfter(value string) (time.Duration, bool) {
	return parseRetryAfterAt(value, time.Now())
}

func parseRetryAfterAt(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, false
		}
		if secs*float64(time.Second) > float64(maxDelay) {
			return maxDelay, true
		}
		return time.Duration(secs * float64(time.Second)), true
	}

	// HTTP date format: "Wed, 21 Oct 2015 07:28:00 GMT"
	if at, err := http.ParseTime(value); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		if d > maxDelay {
			d = maxDelay
		}
		return d, true
	}

	return 0, false
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Sleeper is the signature shared by components that back off between attempts.
// Tests substitute it to observe requested delays without waiting.
type Sleeper func(ctx context.Context, d time.Duration) error
