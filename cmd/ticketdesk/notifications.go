package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/nhle/ticketdesk/internal/cli"
	"github.com/nhle/ticketdesk/internal/theme"
)

func unreadCommand(ctx context.Context) *cli.Command {
	var o options
	return &cli.Command{
		Name:    "unread",
		Summary: "Report whether you have unread notifications",
		Flags: func() *pflag.FlagSet {
			return newFlagSet("unread", &o)
		},
		Run: func(args []string) error {
			e, err := o.load(nil)
			if err != nil {
				return err
			}
			defer e.close()

			if _, err := e.token(ctx); err != nil {
				return err
			}
			unread := e.notifyService().Unread()
			if err := unread.Refresh(ctx); err != nil {
				return err
			}
			printUnread(unread.HasUnread())
			return nil
		},
	}
}

func readCommand(ctx context.Context) *cli.Command {
	var o options
	return &cli.Command{
		Name:    "read",
		Summary: "Mark one notification as read",
		Usage:   "ticketdesk read <notification-id> [flags]",
		Flags: func() *pflag.FlagSet {
			return newFlagSet("read", &o)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one notification id")
			}

			e, err := o.load(nil)
			if err != nil {
				return err
			}
			defer e.close()

			unread := e.notifyService().Unread()
			if err := unread.MarkRead(ctx, args[0]); err != nil {
				return err
			}
			printUnread(unread.HasUnread())
			return nil
		},
	}
}

func readAllCommand(ctx context.Context) *cli.Command {
	var o options
	return &cli.Command{
		Name:    "read-all",
		Summary: "Mark every notification as read",
		Flags: func() *pflag.FlagSet {
			return newFlagSet("read-all", &o)
		},
		Run: func(args []string) error {
			e, err := o.load(nil)
			if err != nil {
				return err
			}
			defer e.close()

			unread := e.notifyService().Unread()
			if err := unread.MarkAllRead(ctx); err != nil {
				return err
			}
			printUnread(unread.HasUnread())
			return nil
		},
	}
}

func watchCommand(ctx context.Context) *cli.Command {
	var o options
	return &cli.Command{
		Name:    "watch",
		Summary: "Follow the unread badge over the push channel",
		Description: `Connect to the push channel and print the unread state each time it
changes, along with channel state transitions. Runs until interrupted.`,
		Flags: func() *pflag.FlagSet {
			return newFlagSet("watch", &o)
		},
		Run: func(args []string) error {
			e, err := o.load(nil)
			if err != nil {
				return err
			}
			defer e.close()

			if _, err := e.token(ctx); err != nil {
				return err
			}

			svc := e.notifyService()
			updates, unsubscribe := svc.Unread().Subscribe()
			defer unsubscribe()

			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()

			last := svc.Unread().HasUnread()
			printUnread(last)

			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			state := svc.Realtime().State()
			fmt.Fprintln(os.Stderr, theme.ChannelStyle(state).Render("● "+state.String()))

			for {
				select {
				case <-ctx.Done():
					return nil
				case hasUnread := <-updates:
					if hasUnread != last {
						last = hasUnread
						printUnread(hasUnread)
					}
				case <-ticker.C:
					if next := svc.Realtime().State(); next != state {
						state = next
						fmt.Fprintln(os.Stderr, theme.ChannelStyle(state).Render("● "+state.String()))
					}
				}
			}
		},
	}
}

func printUnread(hasUnread bool) {
	if hasUnread {
		fmt.Println(theme.UnreadBadgeStyle.Render("NEW") + " you have unread notifications")
		return
	}
	fmt.Println(theme.MutedStyle.Render("no unread notifications"))
}
