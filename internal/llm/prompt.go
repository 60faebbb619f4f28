package llm

import (
	"strings"
)

// BuildCardPrompt composes the fixed-shape prompt for structuring business
// card text. The normalization rules are enumerated here; the caller still
// re-applies them after decoding since model compliance is best-effort.
func BuildCardPrompt(combinedText string) string {
	parts := []string{
		"You are a business card parser. Return ONLY a single JSON object. No prose, no markdown, no code fences.",
		"The JSON object must have exactly these keys:",
		`company_name (string), business_type (string),`,
		`address (object with street, city, state, pincode, country, all strings, split the address into these parts),`,
		`company_website (string), notes (string),`,
		`contact_persons (array of objects with name, designation, phone, email, whatsapp_number (strings) and is_primary (boolean)),`,
		`confidence (object with company_name, address, contact_persons, each one of "high", "medium", "low").`,
		"Normalization rules:",
		"Strip all separators, spaces, and dashes from phone numbers; digits only.",
		"Lowercase and trim email addresses.",
		"If a number is labelled WhatsApp, put it in whatsapp_number; otherwise leave whatsapp_number empty.",
		"Mark the most prominent person on the card as primary (is_primary true); exactly one person may be primary.",
		"Use an empty string for anything not present on the card. Never output null.",
		"Card text follows.",
		"",
		combinedText,
	}
	return strings.Join(parts, "\n")
}
