package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/virajbhatt/cardintel/constants"
	"github.com/virajbhatt/cardintel/internal/dedupe"
	"github.com/virajbhatt/cardintel/internal/entity"
	"github.com/virajbhatt/cardintel/internal/extract"
	"github.com/virajbhatt/cardintel/internal/quota"
)

type fakeLimiter struct {
	decision quota.Decision
}

func (f *fakeLimiter) CheckAllLimits(ctx context.Context, requesterID string) quota.Decision {
	return f.decision
}

type fakeExtractor struct {
	text   extract.ExtractedText
	err    error
	called int
}

func (f *fakeExtractor) ExtractFromCardPair(ctx context.Context, frontPath, backPath string) (extract.ExtractedText, error) {
	f.called++
	return f.text, f.err
}

type fakeParser struct {
	card entity.ParsedCard
	conf entity.CardConfidence
	err  error
}

func (f *fakeParser) Parse(ctx context.Context, combinedText string) (entity.ParsedCard, entity.CardConfidence, error) {
	return f.card, f.conf, f.err
}

type fakeDetector struct {
	signals dedupe.DuplicateSignals
}

func (f *fakeDetector) Detect(ctx context.Context, candidate entity.ParsedCard) dedupe.DuplicateSignals {
	return f.signals
}

type recordingLedger struct {
	records []*entity.UsageRecord
	err     error
}

func (r *recordingLedger) Append(ctx context.Context, rec *entity.UsageRecord) error {
	r.records = append(r.records, rec)
	return r.err
}

func allowAll() *fakeLimiter {
	return &fakeLimiter{decision: quota.Decision{Allowed: true}}
}

// tempImage writes a real file so cleanup can be observed.
func tempImage(t *testing.T, side constants.ImageSide) *CardImage {
	t.Helper()
	path := filepath.Join(t.TempDir(), string(side)+".jpg")
	if err := os.WriteFile(path, []byte("jpegdata"), 0o600); err != nil {
		t.Fatal(err)
	}
	return &CardImage{Path: path, Size: 8, ContentType: "image/jpeg", Side: side}
}

func assertDeleted(t *testing.T, images ...*CardImage) {
	t.Helper()
	for _, img := range images {
		if img == nil {
			continue
		}
		if _, err := os.Stat(img.Path); !os.IsNotExist(err) {
			t.Fatalf("%s image not deleted: %v", img.Side, err)
		}
	}
}

func newTestProcessor(lim RateChecker, ex Extractor, parser Parser, usage UsageAppender) *Processor {
	return NewProcessor(lim, ex, parser, &fakeDetector{}, usage, slog.Default())
}

func TestProcessSuccess(t *testing.T) {
	front := tempImage(t, constants.SideFront)
	back := tempImage(t, constants.SideBack)

	ledger := &recordingLedger{}
	ex := &fakeExtractor{text: extract.ExtractedText{
		FrontText:    "ACME",
		BackText:     "services list",
		CombinedText: "Front: ACME\n\nBack: services list",
	}}
	parser := &fakeParser{card: entity.ParsedCard{CompanyName: "Acme"}}
	p := newTestProcessor(allowAll(), ex, parser, ledger)

	res, err := p.Process(context.Background(), Request{RequesterID: "r1", Front: front, Back: back})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s", res.Status)
	}
	if res.Card == nil || res.Card.CompanyName != "Acme" {
		t.Fatalf("card = %+v", res.Card)
	}
	if res.RawText == nil || res.RawText.Front != "ACME" {
		t.Fatalf("raw text = %+v", res.RawText)
	}
	assertDeleted(t, front, back)

	// Two records: the parse attempt and the billed extraction.
	if len(ledger.records) != 2 {
		t.Fatalf("expected 2 usage records, got %d", len(ledger.records))
	}
	parseRec, extractRec := ledger.records[0], ledger.records[1]
	if parseRec.ServiceKind != constants.ServiceStructuredParsing || !parseRec.Success || parseRec.UnitsUsed != 1 {
		t.Fatalf("parse record = %+v", parseRec)
	}
	if extractRec.ServiceKind != constants.ServiceTextExtraction || !extractRec.Success {
		t.Fatalf("extract record = %+v", extractRec)
	}
	if extractRec.UnitsUsed != 2 {
		t.Fatalf("front+back should bill 2 units, got %d", extractRec.UnitsUsed)
	}
	if len(extractRec.Metadata.ImageSizes) != 2 {
		t.Fatalf("metadata sizes = %v", extractRec.Metadata.ImageSizes)
	}
}

func TestProcessFrontOnlyBillsOneUnit(t *testing.T) {
	front := tempImage(t, constants.SideFront)
	ledger := &recordingLedger{}
	ex := &fakeExtractor{text: extract.ExtractedText{FrontText: "ACME", CombinedText: "ACME"}}
	p := newTestProcessor(allowAll(), ex, &fakeParser{card: entity.ParsedCard{CompanyName: "Acme"}}, ledger)

	if _, err := p.Process(context.Background(), Request{RequesterID: "r1", Front: front}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := ledger.records[len(ledger.records)-1]
	if last.UnitsUsed != 1 {
		t.Fatalf("front-only should bill 1 unit, got %d", last.UnitsUsed)
	}
}

func TestProcessRateLimited(t *testing.T) {
	front := tempImage(t, constants.SideFront)
	ledger := &recordingLedger{}
	ex := &fakeExtractor{}
	lim := &fakeLimiter{decision: quota.Decision{Allowed: false, Reason: "monthly extraction quota reached"}}
	p := newTestProcessor(lim, ex, &fakeParser{}, ledger)

	res, err := p.Process(context.Background(), Request{RequesterID: "r1", Front: front})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusRateLimited {
		t.Fatalf("status = %s", res.Status)
	}
	if ex.called != 0 {
		t.Fatal("extractor must not run when rate limited")
	}
	if len(ledger.records) != 0 {
		t.Fatal("no usage should be recorded for a blocked request")
	}
	// The staged image is removed even though nothing ran.
	assertDeleted(t, front)
}

func TestProcessExtractionFailure(t *testing.T) {
	front := tempImage(t, constants.SideFront)
	ledger := &recordingLedger{}
	ex := &fakeExtractor{err: extract.NewExtractionError(extract.ReasonNoText, "no text detected in image", nil)}
	p := newTestProcessor(allowAll(), ex, &fakeParser{}, ledger)

	res, err := p.Process(context.Background(), Request{RequesterID: "r1", Front: front})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusExtractionFailed {
		t.Fatalf("status = %s", res.Status)
	}
	if res.Suggestion == "" {
		t.Fatal("extraction failure should suggest manual entry")
	}
	if len(ledger.records) != 1 {
		t.Fatalf("expected 1 usage record, got %d", len(ledger.records))
	}
	rec := ledger.records[0]
	if rec.Success || rec.ServiceKind != constants.ServiceTextExtraction || rec.ErrorMessage == "" {
		t.Fatalf("failure record = %+v", rec)
	}
	assertDeleted(t, front)
}

func TestProcessParseFailurePreservesRawText(t *testing.T) {
	front := tempImage(t, constants.SideFront)
	ledger := &recordingLedger{}
	ex := &fakeExtractor{text: extract.ExtractedText{FrontText: "ACME TRADERS", CombinedText: "ACME TRADERS"}}
	parser := &fakeParser{err: errors.New("structured parsing failed after 2 attempts")}
	p := newTestProcessor(allowAll(), ex, parser, ledger)

	res, err := p.Process(context.Background(), Request{RequesterID: "r1", Front: front})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusParseFailed {
		t.Fatalf("status = %s", res.Status)
	}
	if res.RawText == nil || res.RawText.Combined != "ACME TRADERS" {
		t.Fatalf("raw text must survive a parse failure, got %+v", res.RawText)
	}
	if res.Card != nil {
		t.Fatal("no card on parse failure")
	}
	assertDeleted(t, front)

	if len(ledger.records) != 2 {
		t.Fatalf("expected 2 usage records, got %d", len(ledger.records))
	}
	if ledger.records[0].ServiceKind != constants.ServiceStructuredParsing || ledger.records[0].Success {
		t.Fatalf("parse record = %+v", ledger.records[0])
	}
	if ledger.records[1].ServiceKind != constants.ServiceTextExtraction || ledger.records[1].Success {
		t.Fatalf("extract record = %+v", ledger.records[1])
	}
}

func TestProcessLedgerWriteFailureDoesNotFailPipeline(t *testing.T) {
	front := tempImage(t, constants.SideFront)
	ledger := &recordingLedger{err: errors.New("db down")}
	ex := &fakeExtractor{text: extract.ExtractedText{FrontText: "ACME", CombinedText: "ACME"}}
	p := newTestProcessor(allowAll(), ex, &fakeParser{card: entity.ParsedCard{CompanyName: "Acme"}}, ledger)

	res, err := p.Process(context.Background(), Request{RequesterID: "r1", Front: front})
	if err != nil {
		t.Fatalf("ledger failure must not fail the request: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s", res.Status)
	}
}

func TestProcessValidation(t *testing.T) {
	tests := []struct {
		name    string
		front   *CardImage
		back    *CardImage
		wantErr error
	}{
		{"missing front", nil, nil, ErrMissingFront},
		{"bad type", &CardImage{Path: "/tmp/x.gif", Size: 10, ContentType: "image/gif", Side: constants.SideFront}, nil, ErrImageType},
		{"oversize front", &CardImage{Path: "/tmp/x.jpg", Size: constants.MaxImageBytes + 1, ContentType: "image/jpeg", Side: constants.SideFront}, nil, ErrImageSize},
		{
			"bad back type",
			&CardImage{Path: "/tmp/x.jpg", Size: 10, ContentType: "image/jpeg", Side: constants.SideFront},
			&CardImage{Path: "/tmp/y.bmp", Size: 10, ContentType: "image/bmp", Side: constants.SideBack},
			ErrImageType,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ledger := &recordingLedger{}
			p := newTestProcessor(allowAll(), &fakeExtractor{}, &fakeParser{}, ledger)
			_, err := p.Process(context.Background(), Request{RequesterID: "r1", Front: tc.front, Back: tc.back})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if len(ledger.records) != 0 {
				t.Fatal("validation failures must not write usage")
			}
		})
	}
}

func TestProcessBackWarningPropagates(t *testing.T) {
	front := tempImage(t, constants.SideFront)
	back := tempImage(t, constants.SideBack)
	ledger := &recordingLedger{}
	ex := &fakeExtractor{text: extract.ExtractedText{
		FrontText:    "ACME",
		CombinedText: "ACME",
		BackWarning:  "back side could not be read; continuing with front side only",
	}}
	p := newTestProcessor(allowAll(), ex, &fakeParser{card: entity.ParsedCard{CompanyName: "Acme"}}, ledger)

	res, err := p.Process(context.Background(), Request{RequesterID: "r1", Front: front, Back: back})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BackWarning == "" {
		t.Fatal("back warning should surface in the result")
	}
	// Both sides were submitted, so both are billed even though one degraded.
	last := ledger.records[len(ledger.records)-1]
	if last.UnitsUsed != 2 {
		t.Fatalf("degraded back still bills 2 units, got %d", last.UnitsUsed)
	}
}
