package constants

// ServiceKind identifies the external capability a usage record is billed against.
type ServiceKind string

// Stable values (store these exact strings in DB).
const (
	ServiceTextExtraction    ServiceKind = "text-extraction"    // OCR calls, counted against the monthly quota
	ServiceStructuredParsing ServiceKind = "structured-parsing" // generative parsing, unlimited tier, observability only
)

// ConfidenceLevel is the qualitative certainty attached to each parsed field group.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// NormalizeConfidence maps free-form model output onto the closed level set.
// Unrecognized or missing values default to low: under-confidence is the safe
// direction for a human-approval workflow.
func NormalizeConfidence(s string) ConfidenceLevel {
	switch ConfidenceLevel(s) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return ConfidenceLevel(s)
	default:
		return ConfidenceLow
	}
}

// ImageSide labels which face of the card an image shows.
type ImageSide string

const (
	SideFront ImageSide = "front"
	SideBack  ImageSide = "back"
)
