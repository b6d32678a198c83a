package records

// BuildRegistrationJSONSchema returns a JSON-Schema (draft 2020-12 subset) as
// a generic map describing one extracted registration page. We validate the
// sanitized service output against it locally; the service itself only
// promises JSON text, not this shape.
func BuildRegistrationJSONSchema() map[string]any {
	props := map[string]any{
		"Registration Date":        map[string]any{"type": "string"},
		"Receipt Number":           map[string]any{"type": "string", "minLength": 1},
		"Participant Name":         map[string]any{"type": "string", "minLength": 1},
		"Event Name":               map[string]any{"type": "string", "minLength": 1},
		"Participant Phone Number": map[string]any{"type": "string"},
		"Participant Email ID":     map[string]any{"type": []any{"string", "null"}},
		"Amount Paid":              map[string]any{"type": "integer", "minimum": 0},
		"Volunteer Code":           map[string]any{"type": "string"},
	}
	required := []string{"Participant Name", "Receipt Number", "Event Name", "Amount Paid"}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}
