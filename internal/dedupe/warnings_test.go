package dedupe

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequiresOverride(t *testing.T) {
	ref := &ClientRef{ID: uuid.New(), CompanyName: "Acme"}
	tests := []struct {
		name    string
		signals DuplicateSignals
		want    bool
	}{
		{"empty", DuplicateSignals{}, false},
		{"exact", DuplicateSignals{ExactMatch: ref}, true},
		{"similar", DuplicateSignals{SimilarCompanies: []SimilarCompany{{Client: *ref, SimilarityPercent: 90}}}, true},
		{"contact", DuplicateSignals{ExistingContact: &ContactMatch{Client: *ref, MatchedContact: "9876543210", MatchType: MatchPhone}}, true},
	}
	for _, tc := range tests {
		if got := RequiresOverride(tc.signals); got != tc.want {
			t.Fatalf("%s: RequiresOverride = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestGenerateWarningsSeverity(t *testing.T) {
	ref := ClientRef{ID: uuid.New(), CompanyName: "Acme"}
	s := DuplicateSignals{
		ExactMatch:       &ref,
		SimilarCompanies: []SimilarCompany{{Client: ref, SimilarityPercent: 92}},
		ExistingContact:  &ContactMatch{Client: ref, MatchedContact: "ravi@example.com", MatchType: MatchEmail},
	}
	ws := GenerateWarnings(s)
	if len(ws) != 3 {
		t.Fatalf("expected 3 warnings, got %d", len(ws))
	}
	if ws[0].Severity != SeverityError {
		t.Fatalf("exact match severity = %s, want error", ws[0].Severity)
	}
	if ws[1].Severity != SeverityWarning || ws[2].Severity != SeverityWarning {
		t.Fatal("similar and contact signals should be warnings")
	}
	if !strings.Contains(ws[1].Message, "92%") {
		t.Fatalf("similar warning should cite the match percent, got %q", ws[1].Message)
	}
}

func TestGenerateWarningsEmpty(t *testing.T) {
	if ws := GenerateWarnings(DuplicateSignals{}); len(ws) != 0 {
		t.Fatalf("empty signals should produce no warnings, got %d", len(ws))
	}
}
