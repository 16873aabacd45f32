package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRateLimitErrorIs(t *testing.T) {
	err := fmt.Errorf("fetch state: %w", &RateLimitError{RetryAfter: 7 * time.Second})

	if !errors.Is(err, ErrRateLimited) {
		t.Error("errors.Is(err, ErrRateLimited) = false, want true")
	}

	d, ok := RetryAfter(err)
	if !ok || d != 7*time.Second {
		t.Errorf("RetryAfter() = %v, %v, want 7s, true", d, ok)
	}

	if _, ok := RetryAfter(ErrUnreachable); ok {
		t.Error("RetryAfter(ErrUnreachable) ok = true, want false")
	}
}

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"auth", fmt.Errorf("state: %w", ErrAuthRequired), "Run 'ytmdeck auth login' and approve the request in YouTube Music Desktop"},
		{"rate limit", &RateLimitError{RetryAfter: time.Second}, "Too many requests. Wait a moment and try again"},
		{"unreachable", ErrUnreachable, "Make sure YouTube Music Desktop is running with the companion server enabled"},
		{"gave up", ErrGaveUp, "Make sure YouTube Music Desktop is running with the companion server enabled"},
		{"custom", WithSuggestion(errors.New("boom"), "try again"), "try again"},
		{"unknown", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSuggestion(tt.err); got != tt.want {
				t.Errorf("GetSuggestion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPartialResult(t *testing.T) {
	var p PartialResult[int]
	p.AddError(nil)
	if p.HasErrors() {
		t.Fatal("HasErrors() = true after adding nil")
	}

	p.AddError(errors.New("surface b: device detached"))
	p.AddError(errors.New("surface c: closed"))

	if !p.HasErrors() {
		t.Fatal("HasErrors() = false, want true")
	}
	want := "2 errors occurred:\n  1. surface b: device detached\n  2. surface c: closed\n"
	if got := p.ErrorSummary(); got != want {
		t.Errorf("ErrorSummary() = %q, want %q", got, want)
	}
	if p.Err() == nil {
		t.Error("Err() = nil, want joined error")
	}
}
