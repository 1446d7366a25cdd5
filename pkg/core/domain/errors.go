package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a voucher cannot be located by id and no
// decodable payload was supplied.
var ErrNotFound = errors.New("voucher not found")

// Validation reasons, user-attributable so the caller can show the exact one.
const (
	ReasonTooShort    = "too_short"
	ReasonTooLong     = "too_long"
	ReasonRequired    = "required"
	ReasonProfanity   = "profanity"
	ReasonDuplicate   = "duplicate_code"
	ReasonInvalidDate = "invalid_date"
)

// ValidationError reports a single violated field rule.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// Rate-limit reasons.
const (
	ReasonTooSoon  = "too_soon"
	ReasonDailyCap = "daily_cap"
)

// RateLimitError means the client must wait; editing the input won't help.
type RateLimitError struct {
	Reason     string        `json:"reason"`
	RetryAfter time.Duration `json:"-"`
}

func (e *RateLimitError) Error() string {
	return "rate limited: " + e.Reason
}

// DecodeError wraps a malformed shared-link payload. Recoverable: the caller
// should fall back to a store lookup by id.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return "decode payload: " + e.Cause.Error()
}

func (e *DecodeError) Unwrap() error { return e.Cause }
