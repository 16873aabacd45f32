// Package notify delivers human-readable messages about sync problems,
// filtered by severity and throttled so transient failures don't spam the user.
package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Severity orders notifications.
type Severity int

const (
	Debug Severity = iota
	Info
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity parses a severity name.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "", "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	}
	return Warning, fmt.Errorf("unknown severity %q", s)
}

// Notifier accepts notifications.
type Notifier interface {
	Notify(sev Severity, msg string)
}

// Sink is where notifications that pass the filter end up.
type Sink interface {
	Deliver(sev Severity, msg string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(sev Severity, msg string)

// Deliver calls f.
func (f SinkFunc) Deliver(sev Severity, msg string) { f(sev, msg) }

// Throttled drops notifications below a threshold and repeats of the same
// message within a cooldown.
type Throttled struct {
	sinks     []Sink
	threshold Severity
	cooldown  time.Duration
	now       func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// New creates a throttled notifier delivering to sinks.
func New(threshold Severity, cooldown time.Duration, sinks ...Sink) *Throttled {
	return &Throttled{
		sinks:     sinks,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		last:      make(map[string]time.Time),
	}
}

// Notify implements Notifier.
func (t *Throttled) Notify(sev Severity, msg string) {
	if sev < t.threshold {
		return
	}

	key := sev.String() + "\x00" + msg
	now := t.now()

	t.mu.Lock()
	if last, ok := t.last[key]; ok && now.Sub(last) < t.cooldown {
		t.mu.Unlock()
		return
	}
	t.last[key] = now
	t.mu.Unlock()

	for _, s := range t.sinks {
		s.Deliver(sev, msg)
	}
}

// LogSink writes notifications to a logger.
type LogSink struct {
	Log logrus.FieldLogger
}

// Deliver implements Sink.
func (s LogSink) Deliver(sev Severity, msg string) {
	entry := s.Log.WithField("notify", true)
	switch sev {
	case Debug:
		entry.Debug(msg)
	case Info:
		entry.Info(msg)
	case Warning:
		entry.Warn(msg)
	default:
		entry.Error(msg)
	}
}

// Nop discards everything.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(Severity, string) {}
