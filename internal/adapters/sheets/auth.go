package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/target/adverity-fetchbot/config"
)

// Scope grants read and write access to spreadsheets.
const Scope = gsheets.SpreadsheetsScope

// LoadCredentials returns the service account key JSON from the inline value or the file.
func LoadCredentials(cfg config.SheetsConfig) ([]byte, error) {
	if cfg.CredentialsJSON != "" {
		return []byte(cfg.CredentialsJSON), nil
	}
	if cfg.CredentialsFile == "" {
		return nil, errors.New("no google credentials configured")
	}
	raw, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read google credentials: %w", err)
	}
	return raw, nil
}

// JWTConfig parses a service account key into a two-legged OAuth config.
func JWTConfig(raw []byte) (*jwt.Config, error) {
	jc, err := google.JWTConfigFromJSON(raw, Scope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	if jc.Email == "" || len(jc.PrivateKey) == 0 {
		return nil, errors.New("google credentials missing client_email or private_key")
	}
	return jc, nil
}

// NewAuthorizedClient returns an HTTP client that signs requests with the service account.
func NewAuthorizedClient(ctx context.Context, cfg config.SheetsConfig) (*http.Client, error) {
	raw, err := LoadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	jc, err := JWTConfig(raw)
	if err != nil {
		return nil, err
	}
	hc := jc.Client(ctx)
	hc.Timeout = cfg.Timeout
	return hc, nil
}
