package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/cli"
	"github.com/nhle/ticketdesk/internal/credential"
	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/notify"
	"github.com/nhle/ticketdesk/internal/push"
	"github.com/nhle/ticketdesk/internal/store"
	"github.com/nhle/ticketdesk/internal/theme"
	"github.com/nhle/ticketdesk/internal/ticket"
)

// options are the flags shared by every command.
type options struct {
	configPath string
	token      string
	verbose    bool
}

func newFlagSet(name string, o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&o.configPath, "config", "c", model.DefaultConfigPath(), "path to the config file")
	fs.StringVar(&o.token, "token", "", "session token to use instead of the stored one")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "log debug output")
	return fs
}

// env holds the services one command invocation needs.
type env struct {
	cfg    *model.AppConfig
	logger *slog.Logger
	client *api.Client
	tokens notify.TokenSource

	// cache is nil when the snapshot database could not be opened.
	cache *store.SQLiteStore
}

// load reads the config and builds the API client and token source.
// Commands that show the feed also call openCache.
func (o *options) load(logger *slog.Logger) (*env, error) {
	cfg, err := model.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = cli.NewCommandLogger(o.verbose)
	}
	theme.Apply(cfg.Display.Theme)

	client, err := api.NewClient(api.ClientConfig{
		BaseURL:        cfg.API.BaseURL,
		RequestTimeout: cfg.RequestTimeout(),
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, logger: logger, client: client}
	if o.token != "" {
		e.tokens = credential.Static(o.token)
		return e, nil
	}

	creds, err := credential.Open(cfg.Session.CredentialKey)
	if err != nil {
		return nil, err
	}
	e.tokens = creds
	return e, nil
}

// openCache opens the snapshot database. A failure is logged and the
// command continues without a cache.
func (e *env) openCache() {
	path := e.cfg.Store.Path
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		e.logger.Warn("creating cache directory", "path", path, "error", err)
		return
	}
	cache, err := store.NewSQLiteStore(path)
	if err != nil {
		e.logger.Warn("opening snapshot cache", "path", path, "error", err)
		return
	}
	e.cache = cache
}

func (e *env) close() {
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			e.logger.Debug("closing snapshot cache", "error", err)
		}
	}
}

// token resolves the current credential, failing with api.ErrAuthRequired
// when none is stored.
func (e *env) token(ctx context.Context) (string, error) {
	token, err := e.tokens.Token(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("no session token stored, run 'ticketdesk login': %w", api.ErrAuthRequired)
	}
	return token, nil
}

func (e *env) feed() *ticket.Feed {
	cfg := ticket.FeedConfig{
		API:          e.client,
		AllowPartial: e.cfg.Feed.AllowPartial,
		Logger:       e.logger,
	}
	if e.cache != nil {
		cfg.Cache = e.cache
	}
	return ticket.NewFeed(cfg)
}

func (e *env) notifyService() *notify.Service {
	return notify.NewService(notify.ServiceConfig{
		API:    e.client,
		Tokens: e.tokens,
		Push: push.Config{
			URL:              e.cfg.Push.URL,
			HandshakeTimeout: e.cfg.HandshakeTimeout(),
			ReconnectMin:     msDuration(e.cfg.Push.ReconnectMinMs),
			ReconnectMax:     msDuration(e.cfg.Push.ReconnectMaxMs),
			MaxReconnects:    e.cfg.Push.MaxReconnects,
			Logger:           e.logger,
		},
		RequestTimeout: e.cfg.RequestTimeout(),
		Logger:         e.logger,
	})
}

// parseKey accepts either "source:id" or "source id".
func parseKey(args []string) (model.TicketKey, error) {
	var name, id string
	switch len(args) {
	case 1:
		name, id, _ = strings.Cut(args[0], ":")
	case 2:
		name, id = args[0], args[1]
	default:
		return model.TicketKey{}, fmt.Errorf("expected <source>:<id> or <source> <id>")
	}

	source, ok := model.ParseSource(name)
	if !ok {
		return model.TicketKey{}, &api.ValidationError{Field: "source", Message: fmt.Sprintf("unknown ticket source %q (use inquiry or report)", name)}
	}
	if id == "" {
		return model.TicketKey{}, &api.ValidationError{Field: "id", Message: "ticket id is required"}
	}
	return model.TicketKey{Source: source, ID: id}, nil
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
