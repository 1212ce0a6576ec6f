// Package auth provides Google OAuth2 authentication for mailsheets.
//
// It reads credentials.json and token.json in the formats used by Google's
// Python google-auth library, so tokens written by the Python tooling work
// without re-authentication.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// DefaultScopes cover reading and relabeling mail plus writing to sheets.
var DefaultScopes = []string{
	gmail.GmailModifyScope,
	sheets.SpreadsheetsScope,
}

// ErrNoToken is returned when token.json does not exist and interactive
// authorization is disabled.
var ErrNoToken = errors.New("no saved token, run 'ms auth' first")

// pythonToken represents the token.json format written by Python's google-auth library.
type pythonToken struct {
	Token          string   `json:"token"`
	RefreshToken   string   `json:"refresh_token"`
	TokenURI       string   `json:"token_uri"`
	ClientID       string   `json:"client_id"`
	ClientSecret   string   `json:"client_secret"`
	Scopes         []string `json:"scopes"`
	UniverseDomain string   `json:"universe_domain,omitempty"`
	Account        string   `json:"account,omitempty"`
	Expiry         string   `json:"expiry"`
}

// Options locate the OAuth files and control the consent prompt.
type Options struct {
	CredentialsPath string
	// TokenPath defaults to token.json next to CredentialsPath.
	TokenPath string
	// Prompt receives the consent URL when no token is saved. Nil disables
	// the interactive flow and makes a missing token an error.
	Prompt io.Writer
}

func (o Options) tokenPath() string {
	if o.TokenPath != "" {
		return o.TokenPath
	}
	return filepath.Join(filepath.Dir(o.CredentialsPath), "token.json")
}

// Session is an authorized HTTP client shared by the Gmail and Sheets clients.
type Session struct {
	HTTPClient *http.Client
}

// Sheets returns a Sheets API service using the session.
func (s *Session) Sheets(ctx context.Context, opts ...option.ClientOption) (*sheets.Service, error) {
	svc, err := sheets.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(s.HTTPClient)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// Load returns an authorized session. The saved token is refreshed when
// expired and written back; with a Prompt set, a missing token starts the
// browser consent flow.
func Load(ctx context.Context, opts Options) (*Session, error) {
	config, err := loadOAuthConfig(opts.CredentialsPath)
	if err != nil {
		return nil, err
	}

	tokenPath := opts.tokenPath()
	token, err := loadPythonToken(tokenPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if opts.Prompt == nil {
			return nil, ErrNoToken
		}
		token, err = Authorize(ctx, config, opts.Prompt)
		if err != nil {
			return nil, err
		}
		if err := savePythonToken(tokenPath, token, config); err != nil {
			return nil, fmt.Errorf("save token to %s: %w", tokenPath, err)
		}
	case err != nil:
		return nil, fmt.Errorf("load token from %s: %w", tokenPath, err)
	}

	// Use a token source that auto-refreshes and save the refreshed token.
	ts := config.TokenSource(ctx, token)
	newToken, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	if newToken.AccessToken != token.AccessToken {
		if saveErr := savePythonToken(tokenPath, newToken, config); saveErr != nil {
			// Non-fatal: the refreshed token is still usable for this run.
			fmt.Fprintf(os.Stderr, "warning: could not save refreshed token: %v\n", saveErr)
		}
	}

	return &Session{HTTPClient: oauth2.NewClient(ctx, ts)}, nil
}

// Reauthorize runs the consent flow unconditionally and saves the new token.
func Reauthorize(ctx context.Context, opts Options) error {
	if opts.Prompt == nil {
		opts.Prompt = os.Stdout
	}
	config, err := loadOAuthConfig(opts.CredentialsPath)
	if err != nil {
		return err
	}
	token, err := Authorize(ctx, config, opts.Prompt)
	if err != nil {
		return err
	}
	if err := savePythonToken(opts.tokenPath(), token, config); err != nil {
		return fmt.Errorf("save token to %s: %w", opts.tokenPath(), err)
	}
	return nil
}

// loadOAuthConfig reads credentials.json and returns an OAuth2 config.
func loadOAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials from %s: %w", credentialsPath, err)
	}

	config, err := google.ConfigFromJSON(data, DefaultScopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	return config, nil
}

// loadPythonToken reads a token.json file in Python google-auth format
// and converts it to a Go oauth2.Token.
func loadPythonToken(tokenPath string) (*oauth2.Token, error) {
	data, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, err
	}

	var pt pythonToken
	if err := json.Unmarshal(data, &pt); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	// Python writes ISO 8601 with microseconds.
	var expiry time.Time
	if pt.Expiry != "" {
		for _, layout := range []string{
			"2006-01-02T15:04:05.999999Z",
			"2006-01-02T15:04:05Z",
			time.RFC3339,
			time.RFC3339Nano,
		} {
			if t, err := time.Parse(layout, pt.Expiry); err == nil {
				expiry = t
				break
			}
		}
	}

	return &oauth2.Token{
		AccessToken:  pt.Token,
		RefreshToken: pt.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       expiry,
	}, nil
}

// savePythonToken writes a token in the Python google-auth format.
func savePythonToken(tokenPath string, token *oauth2.Token, config *oauth2.Config) error {
	pt := pythonToken{
		Token:          token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenURI:       config.Endpoint.TokenURL,
		ClientID:       config.ClientID,
		ClientSecret:   config.ClientSecret,
		Scopes:         DefaultScopes,
		UniverseDomain: "googleapis.com",
		Expiry:         token.Expiry.UTC().Format("2006-01-02T15:04:05.999999Z"),
	}

	data, err := json.MarshalIndent(pt, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(tokenPath), 0o700); err != nil {
		return err
	}
	return os.WriteFile(tokenPath, data, 0o600)
}
