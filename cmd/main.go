package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"

	"github.com/webship/provision"
	"github.com/webship/target"
	"github.com/webship/target/types"
	"github.com/webship/ui"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "webship",
		Short:         "one-shot provisioning and deployment of a static web build",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "webship.yaml", "path to the host config file")

	root.AddCommand(provisionCmd(), doctorCmd(), renderCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func provisionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "provision the host and deploy the app in one confirmed run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := provision.LoadConfig(configPath)
			if err != nil {
				return err
			}

			out := ui.New(os.Stdout)
			host, err := dial(cfg)
			if err != nil {
				return err
			}
			defer host.Close()

			auth, err := provision.Authorize(cmd.Context(), host, os.Stdin, out)
			if err != nil {
				return err
			}

			return provision.New(host, cfg, out).Run(cmd.Context(), auth)
		},
	}
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "run non-mutating preflight checks against the host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := provision.LoadConfig(configPath)
			if err != nil {
				return err
			}

			host, err := dial(cfg)
			if err != nil {
				return err
			}
			defer host.Close()

			return provision.Doctor(cmd.Context(), host, ui.New(os.Stdout))
		},
	}
}

func renderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <identity>",
		Short: "preview the server config for an identity without touching the host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rendered, err := provision.RenderServerBlock(args[0], provision.DefaultTarget())
			if err != nil {
				return err
			}
			fmt.Print(rendered)
			return nil
		},
	}
}

func dial(cfg types.Config) (target.Host, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host.Address, cfg.Host.Port)

	// NOTE : ssh.InsecureIgnoreHostKey() is not production ready and it has to be
	// changed with parsing the correct SSH Keys.
	return target.New(addr, cfg.Host.User, ssh.InsecureIgnoreHostKey(), ssh.Password(cfg.Host.Password))
}
