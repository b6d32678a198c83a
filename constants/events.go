package constants

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Event is one canonical code+name pair from the festival's event list.
// The ledger stores the composed form, e.g. "G12 Fifa Tournament PS5 (FC25)".
type Event struct {
	Code string
	Name string
}

// String returns the composed "CODE Name" form used in ledger rows.
func (e Event) String() string {
	return e.Code + " " + e.Name
}

// EventCatalog holds the canonical event list. A nil catalog disables
// catalog checks entirely.
type EventCatalog struct {
	events []Event
	byName map[string]Event
}

// LoadEventCatalog reads a catalog file with one "CODE Event Name" entry per
// line. Blank lines and lines starting with '#' are ignored.
func LoadEventCatalog(path string) (*EventCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event catalog: %w", err)
	}
	defer f.Close()

	cat := &EventCatalog{byName: make(map[string]Event)}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		code, name, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("event catalog: malformed line %q", line)
		}
		ev := Event{Code: code, Name: strings.TrimSpace(name)}
		cat.events = append(cat.events, ev)
		cat.byName[normalizeEventName(ev.String())] = ev
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read event catalog: %w", err)
	}
	return cat, nil
}

// Events returns the catalog entries in file order.
func (c *EventCatalog) Events() []Event {
	if c == nil {
		return nil
	}
	return c.events
}

// Match reports whether the composed event name exactly matches a catalog
// entry (case-insensitive, whitespace-normalized).
func (c *EventCatalog) Match(composed string) (Event, bool) {
	if c == nil {
		return Event{}, false
	}
	ev, ok := c.byName[normalizeEventName(composed)]
	return ev, ok
}

func normalizeEventName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
