package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrAttachmentsUnsupported is returned by providers that cannot accept
// inline media such as recorded speech.
var ErrAttachmentsUnsupported = errors.New("provider does not accept message attachments")

// ErrRateLimit is a 429 from the provider.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrAuthentication means the provider refused the API key. Learners
// supply their own key for the tutor chat, so this is surfaced instead
// of retried.
type ErrAuthentication struct {
	Err error
}

func (e *ErrAuthentication) Error() string {
	return fmt.Sprintf("API key rejected: %v", e.Err)
}

func (e *ErrAuthentication) Unwrap() error { return e.Err }

// ErrInvalidResponse carries output that is not valid JSON or does not
// match the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers 5xx responses and transport failures.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "LLM provider unavailable"
	}
	return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means generation stopped at the token cap. Content
// holds the truncated output.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return fmt.Sprintf("LLM response truncated at max tokens (%d bytes)", len(e.Content))
}

// classifyStatus maps an HTTP status from a provider SDK error onto the
// package's error types.
func classifyStatus(status int, err error) error {
	switch {
	case status == 401 || status == 403:
		return &ErrAuthentication{Err: err}
	case status == 429:
		return &ErrRateLimit{Err: err}
	default:
		return &ErrProviderUnavailable{Err: err}
	}
}
