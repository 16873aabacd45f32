package realtime

import "time"

// Backoff is the reconnect schedule: Delay(n) = min(Base*2^n, Max) for the attempt
// that follows n consecutive failures, up to MaxAttempts attempts.
type Backoff struct {
	Base        time.Duration
	Max         time.Duration
	MaxAttempts int
}

// DefaultBackoff is 500ms doubling, capped at 30s, 5 attempts.
var DefaultBackoff = Backoff{
	Base:        500 * time.Millisecond,
	Max:         30 * time.Second,
	MaxAttempts: 5,
}

// Delay returns the wait before the attempt following n consecutive failures.
func (b Backoff) Delay(n int) time.Duration {
	d := b.Base
	for i := 0; i < n && d < b.Max; i++ {
		d *= 2
	}
	if d > b.Max {
		return b.Max
	}
	return d
}

func (b Backoff) withDefaults() Backoff {
	if b.Base <= 0 {
		b.Base = DefaultBackoff.Base
	}
	if b.Max <= 0 {
		b.Max = DefaultBackoff.Max
	}
	if b.MaxAttempts <= 0 {
		b.MaxAttempts = DefaultBackoff.MaxAttempts
	}
	return b
}
