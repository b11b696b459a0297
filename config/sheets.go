package config

import (
	"strings"
	"time"
)

// SheetsConfig contains Google Sheets audit log configuration.
type SheetsConfig struct {
	// SpreadsheetID identifies the spreadsheet. Empty disables the audit log.
	SpreadsheetID string `env:"GOOGLE_SHEET_ID"`

	// Tab is the worksheet title used in A1 ranges.
	Tab string `env:"GOOGLE_SHEET_TAB" envDefault:"Sheet1"`

	// GID is the numeric sheet id used by insertDimension requests.
	GID int64 `env:"GOOGLE_SHEET_GID" envDefault:"0"`

	// CredentialsFile points at a service account JSON key.
	CredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`

	// CredentialsJSON holds the service account JSON key inline (takes precedence over the file).
	CredentialsJSON string `env:"GOOGLE_CREDENTIALS_JSON"`

	// APIURL is the Sheets API root endpoint; request paths start with v4/.
	APIURL string `env:"GOOGLE_SHEETS_API_URL" envDefault:"https://sheets.googleapis.com/"`

	// Timeout bounds each Sheets HTTP call.
	Timeout time.Duration `env:"GOOGLE_SHEETS_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to Sheets configuration values.
func (c *SheetsConfig) Sanitize() {
	c.SpreadsheetID = strings.TrimSpace(c.SpreadsheetID)
	c.Tab = strings.TrimSpace(c.Tab)
	if c.Tab == "" {
		c.Tab = "Sheet1"
	}
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
	c.CredentialsJSON = strings.TrimSpace(c.CredentialsJSON)
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		c.APIURL = "https://sheets.googleapis.com"
	}
	c.APIURL += "/"
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// IsEnabled reports whether a spreadsheet and credentials are configured.
func (c *SheetsConfig) IsEnabled() bool {
	return c.SpreadsheetID != "" && (c.CredentialsFile != "" || c.CredentialsJSON != "")
}
