package ai

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

var (
	// ErrProviderNotConfigured means the selected provider has no API credential.
	ErrProviderNotConfigured = errors.New("ai provider not configured")
	ErrProviderFailed        = errors.New("ai provider request failed")
	ErrMalformedResponse     = errors.New("malformed ai provider response")
)

// MalformedResponseError carries the reason a provider reply was rejected.
type MalformedResponseError struct {
	Reason string
	Raw    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedResponse, e.Reason)
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

func Malformed(reason, raw string) error {
	return &MalformedResponseError{Reason: reason, Raw: raw}
}
