package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/virajbhatt/cardintel/constants"
	"github.com/virajbhatt/cardintel/internal/entity"
)

// RetryPolicy keeps the parse retry bound explicit and testable: one retry,
// fixed short backoff, verbatim re-issue of the same prompt.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// CardParser turns raw combined card text into a normalized ParsedCard with
// field-level confidence. A structural failure or transient provider error
// is retried exactly once; a second failure is terminal and the caller falls
// back to manual entry with the raw text it already holds.
type CardParser struct {
	gen   TextGenerator
	retry RetryPolicy
	log   *slog.Logger
	sleep func(time.Duration)
}

func NewCardParser(gen TextGenerator, logger *slog.Logger) *CardParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &CardParser{
		gen: gen,
		retry: RetryPolicy{
			MaxAttempts: constants.ParseMaxAttempts,
			Backoff:     constants.ParseRetryBackoff,
		},
		log:   logger,
		sleep: time.Sleep,
	}
}

// Parse runs the prompt contract against the generative capability.
func (p *CardParser) Parse(ctx context.Context, combinedText string) (entity.ParsedCard, entity.CardConfidence, error) {
	rid := uuid.New().String()
	start := time.Now()
	prompt := BuildCardPrompt(combinedText)
	schema := BuildCardJSONSchema()

	p.log.Info("parse.start", "req_id", rid, "text_len", len(combinedText))

	var lastErr error
	for attempt := 1; attempt <= p.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			p.log.Warn("parse.retry", "req_id", rid, "attempt", attempt, "prev_error", lastErr)
			p.sleep(p.retry.Backoff)
		}

		out, err := p.gen.GenerateText(ctx, prompt)
		if err != nil {
			lastErr = fmt.Errorf("generate text: %w", err)
			continue
		}

		doc, err := decodeCardDocument(schema, out)
		if err != nil {
			lastErr = err
			continue
		}

		card, conf := normalizeCard(doc)
		p.log.Info("parse.ok",
			"req_id", rid,
			"attempt", attempt,
			"company", card.CompanyName,
			"contacts", len(card.ContactPersons),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return card, conf, nil
	}

	p.log.Error("parse.exhausted",
		"req_id", rid,
		"attempts", p.retry.MaxAttempts,
		"error", lastErr,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return entity.ParsedCard{}, entity.CardConfidence{}, fmt.Errorf("structured parsing failed after %d attempts: %w", p.retry.MaxAttempts, lastErr)
}

// decodeCardDocument strips fences and stray prose, validates against the
// schema, and unmarshals. Any failure here is structural.
func decodeCardDocument(schema map[string]any, out string) (cardDocument, error) {
	cleaned := ExtractJSONObject(StripCodeFences(out))
	raw := []byte(cleaned)

	if err := ValidateJSONAgainstSchema(schema, raw); err != nil {
		return cardDocument{}, fmt.Errorf("%w: %v", ErrStructural, err)
	}
	var doc cardDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return cardDocument{}, fmt.Errorf("%w: unmarshal: %v", ErrStructural, err)
	}
	if doc.CompanyName == "" {
		return cardDocument{}, fmt.Errorf("%w: company_name missing", ErrStructural)
	}
	return doc, nil
}
