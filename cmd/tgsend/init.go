package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/flemzord/tgsend/internal/config"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			force, _ := cmd.Flags().GetBool("force")
			if path == "" {
				path = config.SearchPaths()[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			starter, err := askStarter()
			if err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}

			if err := writeStarter(path, starter); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	return cmd
}

// askStarter runs the interactive form.
func askStarter() (config.Starter, error) {
	s := config.Starter{
		Token:       "${TGSEND_TOKEN}",
		GatewayBind: "127.0.0.1:8080",
		Metrics:     true,
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Bot token").
				Description("Keep ${TGSEND_TOKEN} to read it from the environment").
				Value(&s.Token).
				Validate(func(v string) error {
					if v == "" {
						return errors.New("token is required")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Enable the HTTP gateway?").
				Value(&s.GatewayEnabled),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Gateway bind address").
				Value(&s.GatewayBind),
			huh.NewInput().
				Title("Gateway bearer token").
				EchoMode(huh.EchoModePassword).
				Value(&s.BearerToken),
		).WithHideFunc(func() bool { return !s.GatewayEnabled }),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Expose Prometheus metrics?").
				Value(&s.Metrics),
			huh.NewInput().
				Title("OTLP/HTTP trace endpoint (host:port, optional)").
				Value(&s.OTLPEndpoint),
		),
	)
	if err := form.Run(); err != nil {
		return config.Starter{}, err
	}
	return s, nil
}

// writeStarter renders s, checks that it parses, and writes it to path.
func writeStarter(path string, s config.Starter) error {
	data, err := config.Render(s)
	if err != nil {
		return err
	}
	if _, err := config.Parse(data); err != nil {
		return fmt.Errorf("rendered config does not parse: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
