// Package errors provides custom error types for genaiprobe.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNoAPIKey    = errors.New("no API key provided")
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	ErrNoImage     = errors.New("no image bytes found in response")
	ErrNotAnImage  = errors.New("bytes are not a decodable image")
)

// ValidationError represents invalid input to the generate call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// GenerateError represents a failed call to the generative model
type GenerateError struct {
	Model string
	Cause error
}

func (e *GenerateError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("generate with %s failed", e.Model)
	}
	return fmt.Sprintf("generate with %s failed: %v", e.Model, e.Cause)
}

// Unwrap returns the underlying SDK error
func (e *GenerateError) Unwrap() error {
	return e.Cause
}

// NewGenerateError creates a new GenerateError
func NewGenerateError(model string, cause error) *GenerateError {
	return &GenerateError{Model: model, Cause: cause}
}

// FetchError represents a failed HTTP fetch of an image URL
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
	default:
		return fmt.Sprintf("fetch %s failed", e.URL)
	}
}

// Unwrap returns the underlying network error
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewFetchError creates a FetchError for a transport failure
func NewFetchError(url string, cause error) *FetchError {
	return &FetchError{URL: url, Cause: cause}
}

// NewFetchErrorWithStatus creates a FetchError for a non-success status
func NewFetchErrorWithStatus(url string, status int) *FetchError {
	return &FetchError{URL: url, StatusCode: status}
}

// DecodeError represents bytes that could not be decoded as an image
type DecodeError struct {
	Size  int
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not decode %d bytes as image: %v", e.Size, e.Cause)
}

// Unwrap returns the underlying decoder error
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Is allows comparison with sentinel errors
func (e *DecodeError) Is(target error) bool {
	return target == ErrNotAnImage
}

// NewDecodeError creates a new DecodeError
func NewDecodeError(size int, cause error) *DecodeError {
	return &DecodeError{Size: size, Cause: cause}
}

// GetHTTPStatus returns the HTTP status carried by err, or 0
func GetHTTPStatus(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}

// GetModel returns the model name carried by a GenerateError, or ""
func GetModel(err error) string {
	var ge *GenerateError
	if errors.As(err, &ge) {
		return ge.Model
	}
	return ""
}

// IsFetchError reports whether err is a FetchError
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsGenerateError reports whether err is a GenerateError
func IsGenerateError(err error) bool {
	var ge *GenerateError
	return errors.As(err, &ge)
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDecodeError reports whether err is a DecodeError
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrNotAnImage)
}
