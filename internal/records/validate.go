package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compileSchema compiles the registration schema once per parser.
func compileSchema() (*jsonschema.Schema, error) {
	b, err := json.Marshal(BuildRegistrationJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("registration.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("registration.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

var mandatoryFields = []string{"Participant Name", "Receipt Number", "Event Name", "Amount Paid"}

// checkMandatory collects an error for every missing or invalid mandatory
// field of one sanitized object. Absence is a failure, never a default.
func checkMandatory(m map[string]any) []FieldError {
	var errs []FieldError
	for _, field := range mandatoryFields {
		v, ok := m[field]
		if !ok {
			errs = append(errs, FieldError{Field: field, Reason: "missing"})
			continue
		}
		if field == "Amount Paid" {
			f, isNum := v.(float64)
			switch {
			case !isNum:
				errs = append(errs, FieldError{Field: field, Reason: "must be a number"})
			case f != math.Trunc(f):
				errs = append(errs, FieldError{Field: field, Reason: "must be an integer"})
			case f < 0:
				errs = append(errs, FieldError{Field: field, Reason: "must not be negative"})
			}
			continue
		}
		s, isStr := v.(string)
		if !isStr || strings.TrimSpace(s) == "" {
			errs = append(errs, FieldError{Field: field, Reason: "must be a non-empty string"})
		}
	}
	return errs
}

// schemaFieldErrors maps a jsonschema validation failure onto field errors,
// used for shape problems the mandatory check does not already cover.
func schemaFieldErrors(err error) []FieldError {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []FieldError{{Field: "record", Reason: err.Error()}}
	}
	leaves := leafCauses(ve)
	out := make([]FieldError, 0, len(leaves))
	for _, leaf := range leaves {
		field := strings.TrimPrefix(leaf.InstanceLocation, "/")
		if field == "" {
			field = "record"
		}
		out = append(out, FieldError{Field: field, Reason: leaf.Message})
	}
	return out
}

func leafCauses(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leafCauses(c)...)
	}
	return out
}
