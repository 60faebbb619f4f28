package llm

import (
	"context"
	"errors"
)

// TextGenerator is the narrow seam over the external generative capability:
// prompt in, free-form text out. No schema enforcement is assumed from the
// provider; all validation happens on this side.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ErrStructural marks model output that failed JSON decoding or was missing
// a required field. It triggers the single retry; a second occurrence is
// terminal.
var ErrStructural = errors.New("structural parse failure")

// cardDocument is the wire shape the prompt contract asks the model for.
type cardDocument struct {
	CompanyName    string `json:"company_name"`
	BusinessType   string `json:"business_type"`
	Address        struct {
		Street  string `json:"street"`
		City    string `json:"city"`
		State   string `json:"state"`
		Pincode string `json:"pincode"`
		Country string `json:"country"`
	} `json:"address"`
	CompanyWebsite string `json:"company_website"`
	ContactPersons []struct {
		Name           string `json:"name"`
		Designation    string `json:"designation"`
		Phone          string `json:"phone"`
		Email          string `json:"email"`
		WhatsappNumber string `json:"whatsapp_number"`
		IsPrimary      bool   `json:"is_primary"`
	} `json:"contact_persons"`
	Notes      string `json:"notes"`
	Confidence struct {
		CompanyName    string `json:"company_name"`
		Address        string `json:"address"`
		ContactPersons string `json:"contact_persons"`
	} `json:"confidence"`
}
