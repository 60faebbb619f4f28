package entity

import "github.com/virajbhatt/cardintel/constants"

// Address is the structured postal address parsed from a card.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
	Country string `json:"country,omitempty"`
}

// ContactPerson is one person listed on a card or client record.
// Exactly one entry per non-empty list carries IsPrimary.
type ContactPerson struct {
	Name           string `json:"name"`
	Designation    string `json:"designation,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	WhatsappNumber string `json:"whatsapp_number,omitempty"`
	IsPrimary      bool   `json:"is_primary"`
}

// ParsedCard is the normalized record produced by the structured-parsing stage.
type ParsedCard struct {
	CompanyName    string          `json:"company_name"`
	BusinessType   string          `json:"business_type,omitempty"`
	Address        Address         `json:"address"`
	CompanyWebsite string          `json:"company_website,omitempty"`
	ContactPersons []ContactPerson `json:"contact_persons"`
	Notes          string          `json:"notes,omitempty"`
}

// CardConfidence is the parser's self-reported certainty per field group.
type CardConfidence struct {
	CompanyName    constants.ConfidenceLevel `json:"company_name"`
	Address        constants.ConfidenceLevel `json:"address"`
	ContactPersons constants.ConfidenceLevel `json:"contact_persons"`
}
