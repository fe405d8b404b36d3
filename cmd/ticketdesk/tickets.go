package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/cli"
	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/store"
	"github.com/nhle/ticketdesk/internal/ticket"
	"github.com/nhle/ticketdesk/internal/ui/answerform"
)

func feedCommand(ctx context.Context) *cli.Command {
	var (
		o       options
		asJSON  bool
		offline bool
		source  string
	)
	return &cli.Command{
		Name:    "feed",
		Summary: "List your inquiries and reports, newest first",
		Description: `Load your inquiries and reports, merge them into one list ordered by
creation time, and print it. A successful load replaces the local
snapshot; --offline prints that snapshot without contacting the server.`,
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("feed", &o)
			fs.BoolVar(&asJSON, "json", false, "print tickets as JSON")
			fs.BoolVar(&offline, "offline", false, "print the last cached feed")
			fs.StringVar(&source, "source", "", "with --offline, only show inquiry or report tickets")
			return fs
		},
		Examples: []cli.Example{
			{Description: "Show the feed", Command: "ticketdesk feed"},
			{Description: "Show cached reports", Command: "ticketdesk feed --offline --source report"},
		},
		Run: func(args []string) error {
			e, err := o.load(nil)
			if err != nil {
				return err
			}
			defer e.close()
			e.openCache()

			if offline {
				return printCached(ctx, e, source, asJSON)
			}

			token, err := e.token(ctx)
			if err != nil {
				return err
			}
			result, err := e.feed().Load(ctx, token)
			if err != nil {
				return err
			}
			for _, warning := range result.Warnings {
				e.logger.Debug("partial feed", "load_id", result.LoadID, "error", warning.Err)
				fmt.Fprintf(os.Stderr, "warning: %s could not be loaded\n", warning.Source.Label())
			}
			return printTickets(os.Stdout, result.Tickets, asJSON)
		},
	}
}

func printCached(ctx context.Context, e *env, sourceName string, asJSON bool) error {
	if e.cache == nil {
		return errors.New("no snapshot cache is available")
	}
	var filter store.TicketFilter
	if sourceName != "" {
		source, ok := model.ParseSource(sourceName)
		if !ok {
			return &api.ValidationError{Field: "source", Message: fmt.Sprintf("unknown ticket source %q (use inquiry or report)", sourceName)}
		}
		filter.Source = &source
	}
	tickets, err := e.cache.GetTickets(ctx, filter)
	if err != nil {
		return err
	}
	return printTickets(os.Stdout, tickets, asJSON)
}

func queueCommand(ctx context.Context) *cli.Command {
	var (
		o      options
		asJSON bool
		source string
	)
	return &cli.Command{
		Name:    "queue",
		Summary: "List unresolved tickets awaiting an admin answer",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("queue", &o)
			fs.BoolVar(&asJSON, "json", false, "print tickets as JSON")
			fs.StringVarP(&source, "source", "s", "inquiry", "queue to list: inquiry or report")
			return fs
		},
		Examples: []cli.Example{
			{Description: "List open reports", Command: "ticketdesk queue --source report"},
		},
		Run: func(args []string) error {
			src, ok := model.ParseSource(source)
			if !ok {
				return &api.ValidationError{Field: "source", Message: fmt.Sprintf("unknown ticket source %q (use inquiry or report)", source)}
			}

			e, err := o.load(nil)
			if err != nil {
				return err
			}
			defer e.close()

			token, err := e.token(ctx)
			if err != nil {
				return err
			}
			tickets, err := ticket.NewQueue(e.client).Load(ctx, token, src)
			if err != nil {
				return err
			}
			return printTickets(os.Stdout, tickets, asJSON)
		},
	}
}

func showCommand(ctx context.Context) *cli.Command {
	var (
		o      options
		asJSON bool
		cached bool
	)
	return &cli.Command{
		Name:    "show",
		Summary: "Show one ticket",
		Usage:   "ticketdesk show <source>:<id> [flags]",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("show", &o)
			fs.BoolVar(&asJSON, "json", false, "print the ticket as JSON")
			fs.BoolVar(&cached, "cached", false, "read the ticket from the local snapshot")
			return fs
		},
		Run: func(args []string) error {
			key, err := parseKey(args)
			if err != nil {
				return err
			}

			e, err := o.load(nil)
			if err != nil {
				return err
			}
			defer e.close()

			if cached {
				e.openCache()
				if e.cache == nil {
					return errors.New("no snapshot cache is available")
				}
				t, err := e.cache.GetTicket(ctx, key)
				if err != nil {
					return fmt.Errorf("%s is not in the snapshot: %w", key, err)
				}
				return printTicket(os.Stdout, *t, asJSON)
			}

			token, err := e.token(ctx)
			if err != nil {
				return err
			}
			t, err := ticket.NewLifecycle(e.client, e.logger).Detail(ctx, token, key.Source, key.ID)
			if err != nil {
				return err
			}
			return printTicket(os.Stdout, t, asJSON)
		},
	}
}

func answerCommand(ctx context.Context) *cli.Command {
	var (
		o    options
		text string
	)
	return &cli.Command{
		Name:    "answer",
		Summary: "Answer a ticket and mark it resolved",
		Description: `Send an answer for an unresolved ticket. Inquiries move to DONE and
reports to CLOSED. Without --text an editor prompt is shown.`,
		Usage: "ticketdesk answer <source>:<id> [--text TEXT]",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("answer", &o)
			fs.StringVarP(&text, "text", "t", "", "answer text")
			return fs
		},
		Examples: []cli.Example{
			{Description: "Answer inquiry 12", Command: `ticketdesk answer inquiry:12 --text "Fixed, thanks."`},
		},
		Run: func(args []string) error {
			key, err := parseKey(args)
			if err != nil {
				return err
			}

			e, err := o.load(nil)
			if err != nil {
				return err
			}
			defer e.close()

			token, err := e.token(ctx)
			if err != nil {
				return err
			}

			lifecycle := ticket.NewLifecycle(e.client, e.logger)
			t, err := lifecycle.Detail(ctx, token, key.Source, key.ID)
			if err != nil {
				return err
			}

			if text == "" {
				if text, err = promptAnswer(t); err != nil {
					return err
				}
			}

			updated, err := lifecycle.Answer(ctx, token, t, text)
			if err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", updated.Key(), updated.Status)
			return nil
		},
	}
}

// promptAnswer asks for the answer text with the same field the UI uses.
func promptAnswer(t model.Ticket) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", &api.ValidationError{Field: "answer", Message: "Answer text is required (use --text)."}
	}
	if err := printTicket(os.Stderr, t, false); err != nil {
		return "", err
	}

	var text string
	form := huh.NewForm(huh.NewGroup(answerform.AnswerField(&text)))
	if err := form.Run(); err != nil {
		return "", err
	}
	return text, nil
}

func deleteCommand(ctx context.Context) *cli.Command {
	var o options
	return &cli.Command{
		Name:    "delete",
		Summary: "Delete one of your tickets",
		Usage:   "ticketdesk delete <source>:<id> [flags]",
		Flags: func() *pflag.FlagSet {
			return newFlagSet("delete", &o)
		},
		Run: func(args []string) error {
			key, err := parseKey(args)
			if err != nil {
				return err
			}

			e, err := o.load(nil)
			if err != nil {
				return err
			}
			defer e.close()
			e.openCache()

			token, err := e.token(ctx)
			if err != nil {
				return err
			}
			if err := e.feed().Delete(ctx, token, model.Ticket{Source: key.Source, ID: key.ID}); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", key)
			return nil
		},
	}
}
