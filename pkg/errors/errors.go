// Package errors provides structured error handling for the snapshot tool.
// It defines sentinel errors, exit codes, and helpers for adding context
// and details to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes used by the CLI.
const (
	ExitSuccess  = 0 // Successful execution
	ExitGeneral  = 1 // General/unknown error
	ExitInput    = 2 // Invalid input
	ExitNotFound = 3 // Resource not found
	ExitPartial  = 4 // Run completed with degraded results
)

// SnapError is the structured error type for the snapshot tool.
type SnapError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *SnapError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *SnapError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for SnapError.
func (e *SnapError) Is(target error) bool {
	var t *SnapError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &SnapError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &SnapError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	// ErrTransientFetch marks a remote call that failed after bounded
	// retries. The item it covers degrades to unpriced/missing; the run
	// continues.
	ErrTransientFetch = &SnapError{
		Code:     "TRANSIENT_FETCH",
		Message:  "remote fetch failed after retries",
		ExitCode: ExitPartial,
	}

	// ErrAccountResolution means the account does not exist on chain.
	// Fatal for that account's run, never for the batch.
	ErrAccountResolution = &SnapError{
		Code:     "ACCOUNT_RESOLUTION",
		Message:  "account does not resolve",
		ExitCode: ExitNotFound,
	}

	// ErrCacheStorage covers unreadable or unwritable cache state. Always
	// treated as a cache miss by callers.
	ErrCacheStorage = &SnapError{
		Code:     "CACHE_STORAGE",
		Message:  "cache storage failure",
		ExitCode: ExitGeneral,
	}

	// ErrSnapshotWrite is reported per granularity by the snapshot store.
	ErrSnapshotWrite = &SnapError{
		Code:     "SNAPSHOT_WRITE",
		Message:  "snapshot write failed",
		ExitCode: ExitGeneral,
	}

	ErrRetryable = &SnapError{
		Code:     "RETRYABLE_ERROR",
		Message:  "retryable error",
		ExitCode: ExitGeneral,
	}

	ErrTimeout = &SnapError{
		Code:     "TIMEOUT",
		Message:  "operation timed out",
		ExitCode: ExitGeneral,
	}

	ErrRateLimited = &SnapError{
		Code:     "RATE_LIMITED",
		Message:  "rate limited",
		ExitCode: ExitGeneral,
	}

	ErrAPIError = &SnapError{
		Code:     "API_ERROR",
		Message:  "remote API returned an error",
		ExitCode: ExitGeneral,
	}

	ErrInvalidAccount = &SnapError{
		Code:     "INVALID_ACCOUNT",
		Message:  "invalid account name",
		ExitCode: ExitInput,
	}

	ErrTokenNotFound = &SnapError{
		Code:     "TOKEN_NOT_FOUND",
		Message:  "token not found",
		ExitCode: ExitInput,
	}

	ErrPoolNotFound = &SnapError{
		Code:     "POOL_NOT_FOUND",
		Message:  "liquidity pool not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &SnapError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}
)

// New creates a new SnapError with the given code and message.
func New(code, message string) *SnapError {
	return &SnapError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var se *SnapError
	if errors.As(err, &se) {
		return &SnapError{
			Code:       se.Code,
			Message:    fmt.Sprintf("%s: %s", msg, se.Message),
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      err,
			ExitCode:   se.ExitCode,
		}
	}

	return &SnapError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var se *SnapError
	if errors.As(err, &se) {
		return &SnapError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    details,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &SnapError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var se *SnapError
	if errors.As(err, &se) {
		return &SnapError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    se.Details,
			Suggestion: suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &SnapError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the exit code for an error, defaulting to ExitGeneral.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var se *SnapError
	if errors.As(err, &se) {
		return se.ExitCode
	}

	return ExitGeneral
}
