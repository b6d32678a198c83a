package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "gemini-1.5-flash", cfg.Extraction.Model)
	assert.Equal(t, 10*time.Second, cfg.Extraction.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.Extraction.MaxWait)
	assert.Equal(t, "service_account.json", cfg.Ledger.CredentialsFile)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")
	t.Setenv("POLL_INTERVAL", "2s")
	t.Setenv("SHEET_TAB_ID", "42")

	cfg := LoadConfig()
	assert.Equal(t, "gemini-2.0-flash", cfg.Extraction.Model)
	assert.Equal(t, 2*time.Second, cfg.Extraction.PollInterval)
	assert.Equal(t, int64(42), cfg.Ledger.SheetTabID)
}

func TestValidate(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("SHEET_ID", "sheet")
	t.Setenv("OPERATOR_IDENTITY", "desk@example.edu")

	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())

	cfg.Ledger.SpreadsheetID = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHEET_ID")

	cfg = LoadConfig()
	cfg.Extraction.MaxWait = 0
	assert.Error(t, cfg.Validate())
}
