// Command ticketdesk is the terminal client for the job-board support desk:
// users track their inquiries and reports, admins answer the open queues,
// and both see a live unread-notification badge.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCommand(ctx).Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", describeError(err))
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status. Auth failures get
// their own code so scripts can prompt for login.
func exitCode(err error) int {
	if api.IsAuthError(err) {
		return 2
	}
	return 1
}

// describeError renders err for the terminal. Usage and config errors are
// shown verbatim; API failures use the same wording as the UI.
func describeError(err error) string {
	switch api.KindOf(err) {
	case api.KindAuthRequired:
		return api.UserMessage(err) + " Run 'ticketdesk login' to store a session token."
	case api.KindUnknown:
		return err.Error()
	default:
		return api.UserMessage(err)
	}
}

func rootCommand(ctx context.Context) *cli.Command {
	o := &options{}
	return &cli.Command{
		Name:    "ticketdesk",
		Summary: "Support desk client for inquiries and content reports",
		Description: `ticketdesk lists your inquiries and reports, lets admins answer the
open queues, and tracks unread notifications over the push channel.

Without a command it starts the terminal UI.`,
		Subcommands: []*cli.Command{
			tuiCommand(ctx),
			feedCommand(ctx),
			queueCommand(ctx),
			showCommand(ctx),
			answerCommand(ctx),
			deleteCommand(ctx),
			unreadCommand(ctx),
			readCommand(ctx),
			readAllCommand(ctx),
			watchCommand(ctx),
			loginCommand(ctx),
			logoutCommand(),
			configCommand(),
		},
		Flags: func() *pflag.FlagSet {
			return newFlagSet("ticketdesk", o)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			return runTUI(ctx, o, false)
		},
	}
}
