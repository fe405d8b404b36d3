// Package config is the settings editor: a huh form over the user-facing
// fields of model.AppConfig.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/ticketdesk/internal/model"
)

// Form edits a copy of the settings and writes them back on Apply.
type Form struct {
	cfg *model.AppConfig

	baseURL       string
	pushURL       string
	timeoutSec    string
	credentialKey string
	allowPartial  bool
}

// NewForm seeds the form fields from cfg.
func NewForm(cfg *model.AppConfig) *Form {
	return &Form{
		cfg:           cfg,
		baseURL:       cfg.API.BaseURL,
		pushURL:       cfg.Push.URL,
		timeoutSec:    strconv.Itoa(cfg.API.RequestTimeoutSec),
		credentialKey: cfg.Session.CredentialKey,
		allowPartial:  cfg.Feed.AllowPartial,
	}
}

// Build returns the huh form bound to f's fields.
func (f *Form) Build(width int) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API base URL").
				Description("Job-board server root, without /api").
				Placeholder("https://jobs.example.com").
				Value(&f.baseURL).
				Validate(ValidateURL("http", "https")),
			huh.NewInput().
				Title("Push URL").
				Description("Websocket endpoint for notifications").
				Placeholder("wss://jobs.example.com/ws").
				Value(&f.pushURL).
				Validate(ValidateURL("ws", "wss")),
			huh.NewInput().
				Title("Request timeout (seconds)").
				Value(&f.timeoutSec).
				Validate(ValidatePositiveInt),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Credential key").
				Description("Keyring entry holding the session token").
				Value(&f.credentialKey).
				Validate(validateRequired("Credential key")),
			huh.NewConfirm().
				Title("Show partial feeds?").
				Description("Keep one source's tickets when the other fails to load").
				Value(&f.allowPartial),
		),
	).WithWidth(width)
}

// Apply validates the fields and copies them into the config.
func (f *Form) Apply() error {
	if err := ValidateURL("http", "https")(f.baseURL); err != nil {
		return fmt.Errorf("api base URL: %w", err)
	}
	if err := ValidateURL("ws", "wss")(f.pushURL); err != nil {
		return fmt.Errorf("push URL: %w", err)
	}
	if err := ValidatePositiveInt(f.timeoutSec); err != nil {
		return fmt.Errorf("request timeout: %w", err)
	}
	if err := validateRequired("Credential key")(f.credentialKey); err != nil {
		return err
	}

	timeout, _ := strconv.Atoi(strings.TrimSpace(f.timeoutSec))
	f.cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(f.baseURL), "/")
	f.cfg.Push.URL = strings.TrimSpace(f.pushURL)
	f.cfg.API.RequestTimeoutSec = timeout
	f.cfg.Session.CredentialKey = strings.TrimSpace(f.credentialKey)
	f.cfg.Feed.AllowPartial = f.allowPartial
	return nil
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

// ValidateURL returns a validator accepting absolute URLs with one of the
// given schemes.
func ValidateURL(schemes ...string) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return fmt.Errorf("URL is required")
		}
		parsed, err := url.Parse(s)
		if err != nil {
			return fmt.Errorf("invalid URL: %w", err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("URL must include scheme and host (e.g., %s://example.com)", schemes[0])
		}
		for _, scheme := range schemes {
			if parsed.Scheme == scheme {
				return nil
			}
		}
		return fmt.Errorf("URL scheme must be one of %s", strings.Join(schemes, ", "))
	}
}

// ValidatePositiveInt accepts whole numbers greater than zero.
func ValidatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if n <= 0 {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}
