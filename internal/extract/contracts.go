package extract

import (
	"context"
	"errors"
	"fmt"
)

// Reason classifies text-extraction failures so callers can branch on the
// upstream failure mode without string matching.
type Reason string

const (
	ReasonNotFound    Reason = "not-found"     // image missing on disk
	ReasonAuth        Reason = "auth"          // upstream rejected credentials
	ReasonPermission  Reason = "permission"    // upstream denied the operation
	ReasonQuota       Reason = "quota"         // upstream quota exhausted
	ReasonNoText      Reason = "no-text-found" // extraction succeeded but found nothing
	ReasonUnavailable Reason = "unavailable"   // transport or upstream outage
)

// ExtractionError is the typed failure for the OCR capability.
type ExtractionError struct {
	Reason  Reason
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("text extraction failed (%s): %s: %v", e.Reason, e.Message, e.Cause)
	}
	return fmt.Sprintf("text extraction failed (%s): %s", e.Reason, e.Message)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// NewExtractionError builds a typed failure.
func NewExtractionError(reason Reason, message string, cause error) *ExtractionError {
	return &ExtractionError{Reason: reason, Message: message, Cause: cause}
}

// ReasonOf returns the failure reason, or ReasonUnavailable for untyped errors.
func ReasonOf(err error) Reason {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Reason
	}
	return ReasonUnavailable
}

// TextExtractor is the narrow seam over the external OCR capability:
// one image in, best-effort plain text out. Adapter types per provider
// implement it; tests use deterministic doubles.
type TextExtractor interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
}
