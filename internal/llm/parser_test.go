package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type scriptedGenerator struct {
	outputs []string
	errs    []error
	prompts []string
}

func (g *scriptedGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	i := len(g.prompts) - 1
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	var out string
	if i < len(g.outputs) {
		out = g.outputs[i]
	}
	return out, err
}

const validCardJSON = `{
	"company_name": "Acme Traders",
	"business_type": "wholesale",
	"contact_persons": [
		{"name": "Ravi Kumar", "designation": "Owner", "phone": "+91 98765 43210", "email": "Ravi@Acme.IN", "is_primary": true}
	],
	"confidence": {"company_name": "high", "address": "low", "contact_persons": "medium"}
}`

func newTestParser(gen TextGenerator) (*CardParser, *[]time.Duration) {
	p := NewCardParser(gen, slog.Default())
	var slept []time.Duration
	p.sleep = func(d time.Duration) { slept = append(slept, d) }
	return p, &slept
}

func TestParseFirstAttemptSuccess(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{validCardJSON}}
	p, slept := newTestParser(gen)

	card, conf, err := p.Parse(context.Background(), "ACME TRADERS ...")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.CompanyName != "Acme Traders" {
		t.Fatalf("company = %q", card.CompanyName)
	}
	if len(card.ContactPersons) != 1 || card.ContactPersons[0].Phone != "9876543210" {
		t.Fatalf("contacts not normalized: %+v", card.ContactPersons)
	}
	if card.ContactPersons[0].Email != "ravi@acme.in" {
		t.Fatalf("email not normalized: %q", card.ContactPersons[0].Email)
	}
	if conf.ContactPersons != "medium" {
		t.Fatalf("confidence = %s", conf.ContactPersons)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("expected 1 call, got %d", len(gen.prompts))
	}
	if len(*slept) != 0 {
		t.Fatal("no backoff expected on first-attempt success")
	}
}

func TestParseRetriesOnceOnStructuralFailure(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{"this is not json", validCardJSON}}
	p, slept := newTestParser(gen)

	card, _, err := p.Parse(context.Background(), "ACME TRADERS ...")
	if err != nil {
		t.Fatalf("retry should have recovered: %v", err)
	}
	if card.CompanyName != "Acme Traders" {
		t.Fatalf("company = %q", card.CompanyName)
	}
	if len(gen.prompts) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(gen.prompts))
	}
	// Retry re-issues the identical prompt after one fixed backoff.
	if gen.prompts[0] != gen.prompts[1] {
		t.Fatal("retry prompt differs from the original")
	}
	if len(*slept) != 1 || (*slept)[0] != time.Second {
		t.Fatalf("backoff = %v, want one 1s sleep", *slept)
	}
}

func TestParseTerminalAfterTwoFailures(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{"garbage", "{\"company_name\": \"\"}"}}
	p, slept := newTestParser(gen)

	_, _, err := p.Parse(context.Background(), "ACME TRADERS ...")
	if err == nil {
		t.Fatal("expected terminal error")
	}
	if len(gen.prompts) != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", len(gen.prompts))
	}
	if len(*slept) != 1 {
		t.Fatalf("expected exactly 1 backoff, got %d", len(*slept))
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Fatalf("terminal error should report attempt count: %v", err)
	}
}

func TestParseRetriesProviderError(t *testing.T) {
	gen := &scriptedGenerator{
		outputs: []string{"", validCardJSON},
		errs:    []error{errors.New("503 upstream"), nil},
	}
	p, _ := newTestParser(gen)

	card, _, err := p.Parse(context.Background(), "ACME TRADERS ...")
	if err != nil {
		t.Fatalf("transient provider error should be retried: %v", err)
	}
	if card.CompanyName != "Acme Traders" {
		t.Fatalf("company = %q", card.CompanyName)
	}
}

func TestParseAcceptsFencedOutput(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{"```json\n" + validCardJSON + "\n```"}}
	p, _ := newTestParser(gen)

	card, _, err := p.Parse(context.Background(), "ACME TRADERS ...")
	if err != nil {
		t.Fatalf("fenced output should decode: %v", err)
	}
	if card.CompanyName != "Acme Traders" {
		t.Fatalf("company = %q", card.CompanyName)
	}
}

func TestDecodeRejectsMissingCompanyName(t *testing.T) {
	schema := BuildCardJSONSchema()
	_, err := decodeCardDocument(schema, `{"company_name": "", "contact_persons": []}`)
	if !errors.Is(err, ErrStructural) {
		t.Fatalf("expected structural error, got %v", err)
	}
}
