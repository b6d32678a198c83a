package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/eventdesk/registration-ingest/constants"
	"github.com/eventdesk/registration-ingest/internal/common"
	"github.com/eventdesk/registration-ingest/internal/entity"
)

// Parser turns raw extraction text into validated registration records.
type Parser struct {
	schema  *jsonschema.Schema
	catalog *constants.EventCatalog
	logger  *slog.Logger
}

// NewParser builds a parser. catalog may be nil, which disables the
// best-effort event name check.
func NewParser(catalog *constants.EventCatalog, logger *slog.Logger) (*Parser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	return &Parser{schema: schema, catalog: catalog, logger: logger}, nil
}

// Parse decodes and validates in one step.
func (p *Parser) Parse(raw string) ([]entity.RegistrationRecord, error) {
	objs, err := p.Decode(raw)
	if err != nil {
		return nil, err
	}
	return p.Validate(objs)
}

// Decode isolates one JSON object per source page from the raw text. The
// service emits either a single JSON array or newline-delimited objects;
// both are accepted as a sequence of independent JSON values and
// concatenated. Markdown fences and a leading "json" tag are stripped first.
func (p *Parser) Decode(raw string) ([]json.RawMessage, error) {
	s := stripFences(raw)
	if s == "" {
		return nil, fmt.Errorf("%w: no content", common.ErrMalformedResponse)
	}

	dec := json.NewDecoder(strings.NewReader(s))
	var values []json.RawMessage
	for {
		var v json.RawMessage
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no JSON values", common.ErrMalformedResponse)
	}

	var objs []json.RawMessage
	for _, v := range values {
		switch firstByte(v) {
		case '[':
			var arr []json.RawMessage
			if err := json.Unmarshal(v, &arr); err != nil {
				return nil, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
			}
			for _, el := range arr {
				if firstByte(el) != '{' {
					return nil, fmt.Errorf("%w: array element is not an object", common.ErrMalformedResponse)
				}
				objs = append(objs, el)
			}
		case '{':
			objs = append(objs, v)
		default:
			return nil, fmt.Errorf("%w: expected object or array", common.ErrMalformedResponse)
		}
	}
	if len(objs) == 0 {
		return nil, fmt.Errorf("%w: no records", common.ErrMalformedResponse)
	}
	return objs, nil
}

// Validate sanitizes and validates each object against the registration
// schema. Any failure aborts the whole sequence; the returned error names
// every offending mandatory field of the first bad page.
func (p *Parser) Validate(objs []json.RawMessage) ([]entity.RegistrationRecord, error) {
	out := make([]entity.RegistrationRecord, 0, len(objs))
	seen := make(map[string]int, len(objs))

	for i, obj := range objs {
		m, touched, err := normalizeObject(obj)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", common.ErrMalformedResponse, i+1, err)
		}
		if len(touched) > 0 {
			p.logger.Warn("records.sanitize_applied", "page", i+1, "touched", touched)
		}

		if fieldErrs := checkMandatory(m); len(fieldErrs) > 0 {
			return nil, &ValidationError{Page: i, Fields: fieldErrs}
		}

		cleaned, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("sanitize: encode page %d: %w", i+1, err)
		}
		var v any
		if err := json.Unmarshal(cleaned, &v); err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", common.ErrMalformedResponse, i+1, err)
		}
		if err := p.schema.Validate(v); err != nil {
			return nil, &ValidationError{Page: i, Fields: schemaFieldErrors(err)}
		}

		var rec entity.RegistrationRecord
		if err := json.Unmarshal(cleaned, &rec); err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", common.ErrMalformedResponse, i+1, err)
		}

		p.checkEventName(i, rec.EventName)
		if prev, dup := seen[rec.ReceiptNumber]; dup {
			p.logger.Warn("records.duplicate_receipt_number",
				"receipt_number", rec.ReceiptNumber, "page", i+1, "first_page", prev+1)
		} else {
			seen[rec.ReceiptNumber] = i
		}

		out = append(out, rec)
	}
	return out, nil
}

// checkEventName is best-effort: the source catalog may be incomplete or the
// service may paraphrase names, so a mismatch warns without blocking.
func (p *Parser) checkEventName(page int, name string) {
	if p.catalog == nil {
		return
	}
	if _, ok := p.catalog.Match(name); !ok {
		p.logger.Warn("records.event_name_not_in_catalog", "page", page+1, "event_name", name)
	}
}

// stripFences removes markdown code fences and the bare "json" tag the model
// sometimes prefixes its output with.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "json"); ok {
		trimmed := strings.TrimSpace(rest)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			return trimmed
		}
	}
	return s
}

func firstByte(raw json.RawMessage) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b
		}
	}
	return 0
}
