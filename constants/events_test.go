package constants

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEventCatalog(t *testing.T) {
	path := writeCatalog(t, `# Alegria event list
G12 Fifa Tournament PS5 (FC25)
G09 Clash Royale Online

S06 Tug of War (B)
`)

	cat, err := LoadEventCatalog(path)
	require.NoError(t, err)
	require.Len(t, cat.Events(), 3)
	assert.Equal(t, "G12", cat.Events()[0].Code)
	assert.Equal(t, "Fifa Tournament PS5 (FC25)", cat.Events()[0].Name)
	assert.Equal(t, "S06 Tug of War (B)", cat.Events()[2].String())
}

func TestLoadEventCatalogMalformedLine(t *testing.T) {
	path := writeCatalog(t, "NOSPACE\n")
	_, err := LoadEventCatalog(path)
	assert.Error(t, err)
}

func TestEventCatalogMatch(t *testing.T) {
	path := writeCatalog(t, "G04 Ludo Offline\nLA03 Spoken Word Poetry\n")
	cat, err := LoadEventCatalog(path)
	require.NoError(t, err)

	tests := []struct {
		name     string
		composed string
		want     bool
	}{
		{"exact", "G04 Ludo Offline", true},
		{"case insensitive", "g04 ludo offline", true},
		{"extra whitespace", "  LA03   Spoken Word Poetry ", true},
		{"paraphrased", "G04 Ludo (Offline)", false},
		{"unknown", "X99 Nope", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := cat.Match(tt.composed)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestNilCatalogNeverMatches(t *testing.T) {
	var cat *EventCatalog
	assert.Nil(t, cat.Events())
	_, ok := cat.Match("G04 Ludo Offline")
	assert.False(t, ok)
}
