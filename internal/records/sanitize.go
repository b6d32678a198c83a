package records

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// knownFields is the exact key set the extraction instruction asks for.
var knownFields = map[string]struct{}{
	"Registration Date":        {},
	"Receipt Number":           {},
	"Participant Name":         {},
	"Event Name":               {},
	"Participant Phone Number": {},
	"Participant Email ID":     {},
	"Amount Paid":              {},
	"Volunteer Code":           {},
}

// stringFields are trimmed; numbers are coerced to strings (the model
// sometimes emits receipt numbers and phone numbers as JSON numbers).
var stringFields = []string{
	"Registration Date",
	"Receipt Number",
	"Participant Name",
	"Event Name",
	"Participant Phone Number",
	"Volunteer Code",
}

// normalizeObject
// - Coerces numeric -> string for text-ish fields and string -> number for Amount Paid
// - Trims strings; maps empty/"null" email to JSON null
// - Removes unknown keys (strict additionalProperties friendliness)
// Returns the cleaned object plus the names of keys it touched.
func normalizeObject(raw json.RawMessage) (map[string]any, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 4)

	for _, k := range stringFields {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		case float64:
			m[k] = formatNumber(t)
			dropped = append(dropped, k+"(number)")
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	if v, ok := m["Amount Paid"]; ok {
		if s, isStr := v.(string); isStr {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				m["Amount Paid"] = f
				dropped = append(dropped, "Amount Paid(string)")
			}
		}
	}

	if v, ok := m["Participant Email ID"]; ok {
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") {
				m["Participant Email ID"] = nil
				dropped = append(dropped, "Participant Email ID(empty)")
			} else {
				m["Participant Email ID"] = s
			}
		case nil:
			// already null, fine
		default:
			m["Participant Email ID"] = nil
			dropped = append(dropped, "Participant Email ID(type)")
		}
	}

	for k := range m {
		if _, ok := knownFields[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	return m, dropped, nil
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
