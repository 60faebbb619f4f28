package extract

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// ExtractedText is the output of one card-pair extraction. Immutable once
// produced; it lives only for the duration of a request unless parsing
// fails, in which case it is surfaced to the caller for manual entry.
type ExtractedText struct {
	FrontText    string `json:"front_text"`
	BackText     string `json:"back_text,omitempty"`
	CombinedText string `json:"combined_text"`
	BackWarning  string `json:"back_warning,omitempty"`
}

// CardExtractor wraps a TextExtractor with the front/back pair semantics:
// the front side is mandatory and fatal on failure, the back side degrades
// to front-only text. No retry at this layer.
type CardExtractor struct {
	ocr TextExtractor
	log *slog.Logger
}

func NewCardExtractor(ocr TextExtractor, logger *slog.Logger) *CardExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CardExtractor{ocr: ocr, log: logger}
}

// ExtractFromImage extracts text from a single image.
func (c *CardExtractor) ExtractFromImage(ctx context.Context, imagePath string) (string, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return "", NewExtractionError(ReasonNotFound, "image file missing: "+imagePath, err)
	}
	start := time.Now()
	text, err := c.ocr.ExtractText(ctx, imagePath)
	if err != nil {
		c.log.Error("extract.image.failed",
			"path", imagePath,
			"reason", ReasonOf(err),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}
	if text == "" {
		return "", NewExtractionError(ReasonNoText, "no text detected in image", nil)
	}
	c.log.Info("extract.image.ok",
		"path", imagePath,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// ExtractFromCardPair extracts and combines text from a front/back pair.
// backPath may be empty.
func (c *CardExtractor) ExtractFromCardPair(ctx context.Context, frontPath, backPath string) (ExtractedText, error) {
	front, err := c.ExtractFromImage(ctx, frontPath)
	if err != nil {
		return ExtractedText{}, err
	}

	out := ExtractedText{FrontText: front, CombinedText: front}
	if backPath == "" {
		return out, nil
	}

	back, err := c.ExtractFromImage(ctx, backPath)
	if err != nil {
		// Back side is best-effort: degrade to front-only text.
		c.log.Warn("extract.back_side_degraded", "path", backPath, "reason", ReasonOf(err), "error", err)
		out.BackWarning = "back side could not be read; continuing with front side only"
		return out, nil
	}

	out.BackText = back
	out.CombinedText = CombineCardText(front, back)
	return out, nil
}

// CombineCardText is the deterministic concatenation of the two sides.
func CombineCardText(front, back string) string {
	if back == "" {
		return front
	}
	return "Front: " + front + "\n\nBack: " + back
}
