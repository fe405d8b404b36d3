package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/cli"
	"github.com/nhle/ticketdesk/internal/credential"
	"github.com/nhle/ticketdesk/internal/model"
)

func loginCommand(ctx context.Context) *cli.Command {
	var (
		configPath string
		verify     bool
	)
	return &cli.Command{
		Name:    "login",
		Summary: "Store the session token in the system keyring",
		Description: `Store a session token issued by the job-board sign-in flow. The token is
read from the argument, or prompted for when omitted.`,
		Usage: "ticketdesk login [token] [flags]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
			fs.StringVarP(&configPath, "config", "c", model.DefaultConfigPath(), "path to the config file")
			fs.BoolVar(&verify, "verify", true, "check the token against the server before storing it")
			return fs
		},
		Run: func(args []string) error {
			var token string
			switch len(args) {
			case 0:
				var err error
				if token, err = promptToken(); err != nil {
					return err
				}
			case 1:
				token = args[0]
			default:
				return fmt.Errorf("expected at most one token argument")
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return &api.ValidationError{Field: "token", Message: "Session token is required."}
			}

			o := options{configPath: configPath, token: token}
			e, err := o.load(nil)
			if err != nil {
				return err
			}
			defer e.close()

			// The unread count is the cheapest authenticated call.
			if verify {
				if _, err := e.client.UnreadCount(ctx, token); err != nil {
					return err
				}
			}

			creds, err := credential.Open(e.cfg.Session.CredentialKey)
			if err != nil {
				return err
			}
			if err := creds.SetToken(token); err != nil {
				return err
			}
			fmt.Println("session token stored")
			return nil
		},
	}
}

func promptToken() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("no token given and stdin is not a terminal")
	}
	var token string
	err := huh.NewInput().
		Title("Session token").
		EchoMode(huh.EchoModePassword).
		Value(&token).
		Run()
	return token, err
}

func logoutCommand() *cli.Command {
	var configPath string
	return &cli.Command{
		Name:    "logout",
		Summary: "Remove the stored session token",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("logout", pflag.ContinueOnError)
			fs.StringVarP(&configPath, "config", "c", model.DefaultConfigPath(), "path to the config file")
			return fs
		},
		Run: func(args []string) error {
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}
			creds, err := credential.Open(cfg.Session.CredentialKey)
			if err != nil {
				return err
			}
			if err := creds.Clear(); err != nil {
				return err
			}
			fmt.Println("session token removed")
			return nil
		},
	}
}
