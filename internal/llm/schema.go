package llm

// BuildCardJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is used locally to validate the model's output before
// unmarshalling; company_name and contact_persons are the structural
// minimum a usable card record needs.
func BuildCardJSONSchema() map[string]any {
	contact := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":            map[string]any{"type": "string"},
			"designation":     map[string]any{"type": "string"},
			"phone":           map[string]any{"type": "string"},
			"email":           map[string]any{"type": "string"},
			"whatsapp_number": map[string]any{"type": "string"},
			"is_primary":      map[string]any{"type": "boolean"},
		},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"company_name":  map[string]any{"type": "string", "minLength": 1},
			"business_type": map[string]any{"type": "string"},
			"address": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"street":  map[string]any{"type": "string"},
					"city":    map[string]any{"type": "string"},
					"state":   map[string]any{"type": "string"},
					"pincode": map[string]any{"type": "string"},
					"country": map[string]any{"type": "string"},
				},
			},
			"company_website": map[string]any{"type": "string"},
			"contact_persons": map[string]any{"type": "array", "items": contact},
			"notes":           map[string]any{"type": "string"},
			"confidence": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"company_name":    map[string]any{"type": "string"},
					"address":         map[string]any{"type": "string"},
					"contact_persons": map[string]any{"type": "string"},
				},
			},
		},
		"required": []string{"company_name", "contact_persons"},
	}
}
