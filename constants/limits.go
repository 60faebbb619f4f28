package constants

import (
	"strings"
	"time"
)

// Quota reference values. The monthly gate trips at the warning threshold,
// below the hard cap, so the true ceiling keeps headroom.
const (
	MonthlyUnitCap        = 1000
	MonthlyBlockThreshold = 900
	HourlyAttemptCap      = 10
	HourlyWindow          = time.Hour
)

// Image validation limits for card uploads.
const MaxImageBytes = 5 << 20 // 5 MB per image

// AllowedImageTypes holds the accepted MIME types for card images.
var AllowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
}

// Structured-parsing retry contract: one retry after a fixed backoff.
const (
	ParseMaxAttempts  = 2
	ParseRetryBackoff = time.Second
)

// Duplicate detection thresholds.
const (
	FuzzyMatchThreshold = 0.85
	MaxSimilarResults   = 3
)

// Phone normalization: national number length and the country calling code
// stripped from longer digit strings.
const (
	PhoneNationalDigits  = 10
	CountryCallingPrefix = "91"
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
