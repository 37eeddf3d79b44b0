package entity

import (
	"errors"
	"fmt"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrUserNotFound   = errors.New("user not found")

	ErrInvalidEmail   = errors.New("invalid email address")
	ErrTokenNotFound  = errors.New("magic link not found")
	ErrTokenExpired   = errors.New("magic link expired")
	ErrTokenConsumed  = errors.New("magic link already used")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrInvalidSession = errors.New("invalid session")
)

// FetchError means the page could not be retrieved: network, timeout or a
// non-success status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError means the body was fetched but yielded no usable structure.
type ParseError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.URL, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SynthesisError means the reasoning step failed or returned content that
// could not be coerced into the expected shape.
type SynthesisError struct {
	Target string
	Reason string
	Err    error
}

func (e *SynthesisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("synthesize %s: %s: %v", e.Target, e.Reason, e.Err)
	}
	return fmt.Sprintf("synthesize %s: %s", e.Target, e.Reason)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
