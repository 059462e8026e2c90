package domain

import (
	"errors"
	"fmt"
)

// Bank errors.
var (
	// ErrBankNotFound indicates no bank is registered under the requested id.
	ErrBankNotFound = errors.New("bank not found")

	// ErrEmptyBankID indicates a load was requested without a target bank id.
	ErrEmptyBankID = errors.New("bank id must not be empty")

	// ErrUnsupportedScheme indicates no fetcher handles the URL scheme.
	ErrUnsupportedScheme = errors.New("unsupported url scheme")

	errNullBank = errors.New("bank payload is null")
)

// FetchError reports a failed retrieval of a bank or audio resource.
type FetchError struct {
	URL        string
	StatusCode int // zero when the failure happened below HTTP
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %q: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %q: %v", e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// DecodeError reports a bank payload that is not valid bank JSON.
type DecodeError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("decode bank: %v", e.Err)
	}
	return fmt.Sprintf("decode bank %q: %v", e.URL, e.Err)
}

// Unwrap returns the underlying JSON error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
