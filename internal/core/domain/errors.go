package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// For the registry this is a normal outcome, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidIdentifier indicates a string that is not a CVE identifier.
	// No network call is made for such input.
	ErrInvalidIdentifier = errors.New("invalid CVE identifier")

	// ErrUnsupportedType indicates an unknown provider or storage backend.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Reports are still rendered, with a fallback analysis section.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Registry Errors.

	// ErrNetwork indicates the registry could not be reached after all retries.
	ErrNetwork = errors.New("registry unreachable")

	// ErrRateLimited indicates the registry rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Storage Errors.

	// ErrStorageRead indicates a backing store could not be read or parsed.
	ErrStorageRead = errors.New("storage read failed")

	// ErrStorageWrite indicates a backing store could not be written.
	ErrStorageWrite = errors.New("storage write failed")
)

// NetworkError is returned when every registry attempt failed.
// Err holds the final attempt's transport error.
type NetworkError struct {
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("registry request failed after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrNetwork.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// IsNetworkError checks if an error is a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
