package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/virajbhatt/cardintel/constants"
	"github.com/virajbhatt/cardintel/internal/dedupe"
	"github.com/virajbhatt/cardintel/internal/entity"
	"github.com/virajbhatt/cardintel/internal/extract"
	"github.com/virajbhatt/cardintel/internal/quota"
)

// RateChecker gates the pipeline before any external call.
type RateChecker interface {
	CheckAllLimits(ctx context.Context, requesterID string) quota.Decision
}

// UsageAppender records external-call attempts. Appends are best-effort:
// a ledger write failure is logged and never fails the pipeline.
type UsageAppender interface {
	Append(ctx context.Context, rec *entity.UsageRecord) error
}

// Extractor runs the front/back text extraction stage.
type Extractor interface {
	ExtractFromCardPair(ctx context.Context, frontPath, backPath string) (extract.ExtractedText, error)
}

// Parser runs the structured-parsing stage (retry handled inside).
type Parser interface {
	Parse(ctx context.Context, combinedText string) (entity.ParsedCard, entity.CardConfidence, error)
}

// Detector computes advisory duplicate signals.
type Detector interface {
	Detect(ctx context.Context, candidate entity.ParsedCard) dedupe.DuplicateSignals
}

// Status is the terminal outcome of one pipeline run.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusRateLimited      Status = "rate_limited"
	StatusExtractionFailed Status = "extraction_failed"
	StatusParseFailed      Status = "parse_failed"
)

// RawText is the extracted text split by side, returned to the caller on
// every outcome where it exists so nothing the user paid quota for is lost.
type RawText struct {
	Front    string `json:"front"`
	Back     string `json:"back,omitempty"`
	Combined string `json:"combined"`
}

// Request is one card extraction: a mandatory front image, optional back,
// and the requester identity for rate limiting and the ledger.
type Request struct {
	RequesterID string
	Front       *CardImage
	Back        *CardImage
}

// Result is the full outcome bundle.
type Result struct {
	Status           Status                  `json:"status"`
	Card             *entity.ParsedCard      `json:"card,omitempty"`
	Confidence       *entity.CardConfidence  `json:"confidence,omitempty"`
	Duplicates       dedupe.DuplicateSignals `json:"duplicates"`
	RequiresOverride bool                    `json:"requires_override"`
	Warnings         []dedupe.Warning        `json:"warnings,omitempty"`
	RawText          *RawText                `json:"raw_text,omitempty"`
	BackWarning      string                  `json:"back_warning,omitempty"`
	Suggestion       string                  `json:"suggestion,omitempty"`
	Error            string                  `json:"error,omitempty"`
	RateLimit        quota.Decision          `json:"rate_limit"`
}

// Processor sequences rate limit → extract → parse → duplicates → ledger →
// cleanup. One synchronous run per request; no cancellation mid-pipeline.
type Processor struct {
	Limiter   RateChecker
	Extractor Extractor
	Parser    Parser
	Dedupe    Detector
	Usage     UsageAppender
	Logger    *slog.Logger

	now func() time.Time
}

func NewProcessor(limiter RateChecker, ex Extractor, parser Parser, det Detector, usage UsageAppender, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Limiter:   limiter,
		Extractor: ex,
		Parser:    parser,
		Dedupe:    det,
		Usage:     usage,
		Logger:    logger,
		now:       time.Now,
	}
}

// Process runs one extraction to a terminal outcome. The returned error is
// non-nil only for input validation failures; every other failure mode is a
// Result with its status set. Temp images are deleted on every path.
func (p *Processor) Process(ctx context.Context, req Request) (*Result, error) {
	start := p.now()
	defer cleanupImages(p.Logger, req.Front, req.Back)

	if err := validateImages(req.Front, req.Back); err != nil {
		return nil, err
	}

	hasBack := req.Back != nil
	units := quota.UnitsFor(hasBack)
	sizes := []int64{req.Front.Size}
	backPath := ""
	if hasBack {
		sizes = append(sizes, req.Back.Size)
		backPath = req.Back.Path
	}

	decision := p.Limiter.CheckAllLimits(ctx, req.RequesterID)
	if !decision.Allowed {
		p.Logger.Warn("pipeline.rate_limited", "requester_id", req.RequesterID, "reason", decision.Reason)
		return &Result{
			Status:     StatusRateLimited,
			Suggestion: decision.Reason,
			RateLimit:  decision,
		}, nil
	}

	text, err := p.Extractor.ExtractFromCardPair(ctx, req.Front.Path, backPath)
	if err != nil {
		p.appendUsage(ctx, req.RequesterID, constants.ServiceTextExtraction, units, false, err.Error(), entity.UsageMetadata{
			ImageSizes:       sizes,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		})
		return &Result{
			Status:     StatusExtractionFailed,
			Error:      err.Error(),
			Suggestion: "text could not be extracted from the card; try manual entry",
			RateLimit:  decision,
		}, nil
	}

	raw := &RawText{Front: text.FrontText, Back: text.BackText, Combined: text.CombinedText}

	card, conf, parseErr := p.Parser.Parse(ctx, text.CombinedText)
	p.appendUsage(ctx, req.RequesterID, constants.ServiceStructuredParsing, 1, parseErr == nil, errString(parseErr), entity.UsageMetadata{
		ExtractedTextLength: len(text.CombinedText),
	})
	if parseErr != nil {
		// Terminal structuring failure: the raw text is the deliverable.
		p.appendUsage(ctx, req.RequesterID, constants.ServiceTextExtraction, units, false, parseErr.Error(), entity.UsageMetadata{
			ImageSizes:          sizes,
			ProcessingTimeMs:    time.Since(start).Milliseconds(),
			ExtractedTextLength: len(text.CombinedText),
		})
		return &Result{
			Status:      StatusParseFailed,
			RawText:     raw,
			BackWarning: text.BackWarning,
			Error:       parseErr.Error(),
			Suggestion:  "automatic structuring failed; use the extracted text for manual entry",
			RateLimit:   decision,
		}, nil
	}

	signals := p.Dedupe.Detect(ctx, card)

	p.appendUsage(ctx, req.RequesterID, constants.ServiceTextExtraction, units, true, "", entity.UsageMetadata{
		ImageSizes:          sizes,
		ProcessingTimeMs:    time.Since(start).Milliseconds(),
		ExtractedTextLength: len(text.CombinedText),
	})

	p.Logger.Info("pipeline.ok",
		"requester_id", req.RequesterID,
		"company", card.CompanyName,
		"units", units,
		"requires_override", dedupe.RequiresOverride(signals),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return &Result{
		Status:           StatusSuccess,
		Card:             &card,
		Confidence:       &conf,
		Duplicates:       signals,
		RequiresOverride: dedupe.RequiresOverride(signals),
		Warnings:         dedupe.GenerateWarnings(signals),
		RawText:          raw,
		BackWarning:      text.BackWarning,
		RateLimit:        decision,
	}, nil
}

func (p *Processor) appendUsage(ctx context.Context, requesterID string, kind constants.ServiceKind, units int, success bool, errMsg string, meta entity.UsageMetadata) {
	rec := &entity.UsageRecord{
		RequesterID:  requesterID,
		ServiceKind:  kind,
		UnitsUsed:    units,
		Success:      success,
		ErrorMessage: errMsg,
		CreatedAt:    p.now(),
		Metadata:     meta,
	}
	if err := p.Usage.Append(ctx, rec); err != nil {
		p.Logger.Error("pipeline.usage_append_failed", "service_kind", kind, "error", err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
