package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeUpstream         = "UPSTREAM_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConfiguration    = "CONFIGURATION_ERROR"
	ErrCodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	ErrCodeUnsupportedMedia = "UNSUPPORTED_MEDIA"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyUserID   = NewDomainError(ErrCodeValidation, "user id is required")
	ErrEmptyMessage  = NewDomainError(ErrCodeValidation, "message is required")
	ErrEmptyText     = NewDomainError(ErrCodeValidation, "text cannot be empty")
	ErrEmptyChunkID  = NewDomainError(ErrCodeValidation, "chunk id is required")
	ErrEmptyAudioURL = NewDomainError(ErrCodeValidation, "audio url is required")
	ErrEmptyVideoURL = NewDomainError(ErrCodeValidation, "video url is required")
	ErrInvalidRole   = NewDomainError(ErrCodeValidation, "invalid message role")
	ErrNoChunks      = NewDomainError(ErrCodeValidation, "at least one chunk is required")
	ErrInvalidTopK   = NewDomainError(ErrCodeValidation, "topK must be positive")
)

// Media boundary errors
var (
	ErrFileTooLarge        = NewDomainError(ErrCodePayloadTooLarge, "file size exceeds the configured limit")
	ErrUnsupportedMimeType = NewDomainError(ErrCodeUnsupportedMedia, "unsupported media type")
)

// NewUpstreamError wraps a provider failure (embedding, vector index,
// completion, transcription, or video analysis) as an UPSTREAM_ERROR.
func NewUpstreamError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeUpstream, message, err)
}
