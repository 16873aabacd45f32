package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error types for common failure scenarios.
var (
	ErrAuthRequired      = errors.New("authentication required")
	ErrUnreachable       = errors.New("companion server unreachable")
	ErrRateLimited       = errors.New("rate limited")
	ErrTimeout           = errors.New("connection attempt timed out")
	ErrMalformedPayload  = errors.New("malformed player payload")
	ErrAlreadyConnecting = errors.New("already connecting")
	ErrGaveUp            = errors.New("gave up reconnecting")
	ErrUnknownControl    = errors.New("unknown control kind")
	ErrConfigNotFound    = errors.New("config file not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// RateLimitError is returned when the companion server throttles a request.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("rate limited (retry after %v): %s", e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("rate limited (retry after %v)", e.RetryAfter)
}

// Is reports RateLimitError as ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfter returns the retry hint carried by err, if it is a rate-limit error.
func RetryAfter(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}

// YTMDError wraps an error with a user-friendly suggestion.
type YTMDError struct {
	Err        error
	Suggestion string
}

func (e *YTMDError) Error() string {
	return e.Err.Error()
}

func (e *YTMDError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &YTMDError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var ytErr *YTMDError
	if errors.As(err, &ytErr) && ytErr.Suggestion != "" {
		return ytErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrAuthRequired) || strings.Contains(errStr, "unauthorized") {
		return "Run 'ytmdeck auth login' and approve the request in YouTube Music Desktop"
	}

	if errors.Is(err, ErrRateLimited) || strings.Contains(errStr, "429") {
		return "Too many requests. Wait a moment and try again"
	}

	if errors.Is(err, ErrUnreachable) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrGaveUp) ||
		strings.Contains(errStr, "connection refused") {
		return "Make sure YouTube Music Desktop is running with the companion server enabled"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) {
		return "Run 'ytmdeck config init' to create a configuration file"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Err joins all collected errors, or returns nil.
func (p *PartialResult[T]) Err() error {
	return errors.Join(p.Errors...)
}
