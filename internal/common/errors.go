package common

import (
	"errors"
	"fmt"
)

// Kind categorizes a pipeline failure so callers can render a distinct,
// actionable message per failure class.
type Kind string

const (
	KindRasterization     Kind = "RASTERIZATION"
	KindOCRAuth           Kind = "OCR_AUTH"
	KindOCRTimeout        Kind = "OCR_TIMEOUT"
	KindOCRTransient      Kind = "OCR_TRANSIENT"
	KindExtractionAuth    Kind = "EXTRACTION_AUTH"
	KindExtractionTimeout Kind = "EXTRACTION_TIMEOUT"
	KindExtractionFormat  Kind = "EXTRACTION_FORMAT"
)

// AppError represents application-specific errors carrying a failure kind.
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError builds an AppError with the given kind and context.
func NewAppError(kind Kind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the failure kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsKind reports whether err (or anything it wraps) carries the kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Describe renders a human-readable, per-kind message for err. The generic
// fallback is used only when no known kind matches.
func Describe(err error) string {
	switch KindOf(err) {
	case KindRasterization:
		return fmt.Sprintf("Could not rasterize the PDF. The file may be corrupt, or the rendering engine is missing from this installation: %v", err)
	case KindOCRAuth:
		return "OCR authentication failed: the OCR API key is invalid or missing."
	case KindOCRTimeout:
		return "The OCR service timed out. Please try again later."
	case KindOCRTransient:
		return fmt.Sprintf("The OCR service reported a temporary failure: %v", err)
	case KindExtractionAuth:
		return "Classification authentication failed: the extraction API key is invalid or missing."
	case KindExtractionTimeout:
		return "The classification service timed out. The corpus text is intact; retry the classification."
	case KindExtractionFormat:
		return fmt.Sprintf("The classification service returned content that does not match the expected structured format: %v", err)
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}

// WrapError adds context while preserving the wrapped error chain.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
