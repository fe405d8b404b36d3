package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/nhle/ticketdesk/internal/cli"
	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/ui/config"
)

const formWidth = 72

func configCommand() *cli.Command {
	var configPath string
	flags := func(name string) func() *pflag.FlagSet {
		return func() *pflag.FlagSet {
			fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
			fs.StringVarP(&configPath, "config", "c", model.DefaultConfigPath(), "path to the config file")
			return fs
		}
	}

	return &cli.Command{
		Name:    "config",
		Summary: "Edit or print the configuration",
		Flags:   flags("config"),
		Subcommands: []*cli.Command{
			{
				Name:    "show",
				Summary: "Print the effective configuration as YAML",
				Flags:   flags("show"),
				Run: func(args []string) error {
					cfg, err := model.LoadConfig(configPath)
					if err != nil {
						return err
					}
					enc := yaml.NewEncoder(os.Stdout)
					enc.SetIndent(2)
					defer enc.Close()
					return enc.Encode(cfg)
				},
			},
		},
		Run: func(args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("config editing needs a terminal; edit %s directly", configPath)
			}
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}

			form := config.NewForm(cfg)
			if err := form.Build(formWidth).Run(); err != nil {
				return err
			}
			if err := form.Apply(); err != nil {
				return err
			}
			if err := model.SaveConfig(configPath, cfg); err != nil {
				return err
			}
			fmt.Printf("saved %s\n", configPath)
			return nil
		},
	}
}
