package llm

import (
	"regexp"
	"strings"

	"github.com/virajbhatt/cardintel/constants"
	"github.com/virajbhatt/cardintel/internal/entity"
)

var reNonDigit = regexp.MustCompile(`\D`)

// NormalizePhone reduces a phone number to its national 10-digit form.
// Separators, a leading country code (91...), and a leading trunk 0 are all
// dropped by keeping the trailing 10 digits. Anything shorter than 10 digits
// normalizes to the empty string: the result is always "" or 10 digits.
func NormalizePhone(s string) string {
	digits := reNonDigit.ReplaceAllString(s, "")
	if len(digits) < constants.PhoneNationalDigits {
		return ""
	}
	if len(digits) > constants.PhoneNationalDigits {
		digits = digits[len(digits)-constants.PhoneNationalDigits:]
	}
	return digits
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EnsurePrimaryContact enforces the exactly-one-primary invariant post-hoc.
// An empty list gets one placeholder contact marked primary so downstream
// code never dereferences an empty list; with multiple primaries only the
// first keeps the flag; with none, the first contact is promoted.
func EnsurePrimaryContact(contacts []entity.ContactPerson) []entity.ContactPerson {
	if len(contacts) == 0 {
		return []entity.ContactPerson{{IsPrimary: true}}
	}
	seen := false
	for i := range contacts {
		if contacts[i].IsPrimary {
			if seen {
				contacts[i].IsPrimary = false
			}
			seen = true
		}
	}
	if !seen {
		contacts[0].IsPrimary = true
	}
	return contacts
}

// normalizeCard converts the validated wire document into the domain record,
// applying field normalization and the primary-contact invariant.
func normalizeCard(doc cardDocument) (entity.ParsedCard, entity.CardConfidence) {
	card := entity.ParsedCard{
		CompanyName:  strings.TrimSpace(doc.CompanyName),
		BusinessType: strings.TrimSpace(doc.BusinessType),
		Address: entity.Address{
			Street:  strings.TrimSpace(doc.Address.Street),
			City:    strings.TrimSpace(doc.Address.City),
			State:   strings.TrimSpace(doc.Address.State),
			Pincode: strings.TrimSpace(doc.Address.Pincode),
			Country: strings.TrimSpace(doc.Address.Country),
		},
		CompanyWebsite: strings.TrimSpace(doc.CompanyWebsite),
		Notes:          strings.TrimSpace(doc.Notes),
	}

	for _, p := range doc.ContactPersons {
		card.ContactPersons = append(card.ContactPersons, entity.ContactPerson{
			Name:           strings.TrimSpace(p.Name),
			Designation:    strings.TrimSpace(p.Designation),
			Phone:          NormalizePhone(p.Phone),
			Email:          NormalizeEmail(p.Email),
			WhatsappNumber: NormalizePhone(p.WhatsappNumber),
			IsPrimary:      p.IsPrimary,
		})
	}
	card.ContactPersons = EnsurePrimaryContact(card.ContactPersons)

	conf := entity.CardConfidence{
		CompanyName:    constants.NormalizeConfidence(doc.Confidence.CompanyName),
		Address:        constants.NormalizeConfidence(doc.Confidence.Address),
		ContactPersons: constants.NormalizeConfidence(doc.Confidence.ContactPersons),
	}
	return card, conf
}
