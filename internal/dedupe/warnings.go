package dedupe

import "fmt"

// Severity grades a duplicate warning for display.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Warning is a display-ready duplicate notice.
type Warning struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// RequiresOverride reports whether any signal is non-empty. Callers use it
// to force human confirmation before persisting a new client.
func RequiresOverride(s DuplicateSignals) bool {
	return s.ExactMatch != nil || len(s.SimilarCompanies) > 0 || s.ExistingContact != nil
}

// GenerateWarnings maps each signal into a display pair. Pure presentation:
// no side effects, tolerates an all-empty signal set.
func GenerateWarnings(s DuplicateSignals) []Warning {
	var out []Warning
	if s.ExactMatch != nil {
		out = append(out, Warning{
			Severity: SeverityError,
			Message:  fmt.Sprintf("a client named %q already exists", s.ExactMatch.CompanyName),
		})
	}
	if len(s.SimilarCompanies) > 0 {
		top := s.SimilarCompanies[0]
		out = append(out, Warning{
			Severity: SeverityWarning,
			Message: fmt.Sprintf("%d similar client(s) found, closest is %q (%d%% match)",
				len(s.SimilarCompanies), top.Client.CompanyName, top.SimilarityPercent),
		})
	}
	if s.ExistingContact != nil {
		out = append(out, Warning{
			Severity: SeverityWarning,
			Message: fmt.Sprintf("contact %s already belongs to client %q (%s match)",
				s.ExistingContact.MatchedContact, s.ExistingContact.Client.CompanyName, s.ExistingContact.MatchType),
		})
	}
	return out
}
