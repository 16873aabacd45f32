package client

import (
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// DefaultRetryAfter is used when a throttled response carries no usable hint.
const DefaultRetryAfter = 5 * time.Second

var retryHint = regexp.MustCompile(`(?i)retry (?:in|after) (\d+) ?s(?:ec(?:ond)?s?)?\b`)

// RateLimit is the server's view of the remaining request budget.
type RateLimit struct {
	Remaining int
	Reset     time.Time
}

// ParseRetryAfter extracts a retry delay from a 429 response. The body message wins,
// then the Retry-After header, then DefaultRetryAfter.
func ParseRetryAfter(body string, header http.Header) time.Duration {
	if m := retryHint.FindStringSubmatch(body); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 0 {
			return time.Duration(n) * time.Second
		}
	}
	if header != nil {
		if n, err := strconv.Atoi(header.Get("Retry-After")); err == nil && n >= 0 {
			return time.Duration(n) * time.Second
		}
	}
	return DefaultRetryAfter
}

// parseRateLimitHeaders reads X-RateLimit-Remaining and X-RateLimit-Reset.
// Reset is expressed in seconds from now.
func parseRateLimitHeaders(h http.Header, now time.Time) (RateLimit, bool) {
	remaining, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil {
		return RateLimit{}, false
	}
	rl := RateLimit{Remaining: remaining}
	if reset, err := strconv.Atoi(h.Get("X-RateLimit-Reset")); err == nil {
		rl.Reset = now.Add(time.Duration(reset) * time.Second)
	}
	return rl, true
}
