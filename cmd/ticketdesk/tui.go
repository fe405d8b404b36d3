package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/nhle/ticketdesk/internal/app"
	"github.com/nhle/ticketdesk/internal/cli"
	"github.com/nhle/ticketdesk/internal/ticket"
)

func tuiCommand(ctx context.Context) *cli.Command {
	var (
		o     options
		admin bool
	)
	return &cli.Command{
		Name:    "tui",
		Summary: "Start the terminal UI (default)",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("tui", &o)
			fs.BoolVar(&admin, "admin", false, "enable the answer queues")
			return fs
		},
		Run: func(args []string) error {
			return runTUI(ctx, &o, admin)
		},
	}
}

// runTUI runs the Bubble Tea program. The screen belongs to the UI, so
// logs go to ticketdesk.log next to the snapshot database.
func runTUI(ctx context.Context, o *options, admin bool) error {
	logFile, err := openLogFile(o.configPath)
	if err != nil {
		return err
	}
	defer logFile.Close()

	e, err := o.load(cli.NewFileLogger(logFile, o.verbose))
	if err != nil {
		return err
	}
	defer e.close()
	e.openCache()

	svc := e.notifyService()
	defer svc.Stop()

	cfg := app.Config{
		Feed:           e.feed(),
		Queue:          ticket.NewQueue(e.client),
		Lifecycle:      ticket.NewLifecycle(e.client, e.logger),
		Notify:         svc,
		Tokens:         e.tokens,
		Admin:          admin,
		RequestTimeout: e.cfg.RequestTimeout(),
		Logger:         e.logger,
	}
	if e.cache != nil {
		cfg.Cache = e.cache
	}

	p := tea.NewProgram(app.New(cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

func openLogFile(configPath string) (*os.File, error) {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	path := filepath.Join(dir, "ticketdesk.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	return f, nil
}
