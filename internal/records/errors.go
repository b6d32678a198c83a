package records

import (
	"fmt"
	"strings"

	"github.com/eventdesk/registration-ingest/internal/common"
)

// FieldError names one missing or invalid mandatory field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationError reports every offending field of one extracted page.
// Validation failure is fatal for the whole submission; no partial record
// sequence is ever produced.
type ValidationError struct {
	Page   int // zero-based index of the offending object
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("page %d: %s", e.Page+1, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return common.ErrValidation
}
