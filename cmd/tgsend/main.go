// Package main is the entry point for the tgsend CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flemzord/tgsend/internal/channel"
	"github.com/flemzord/tgsend/internal/config"
	"github.com/flemzord/tgsend/internal/delivery"
	"github.com/flemzord/tgsend/internal/gateway"
	"github.com/flemzord/tgsend/internal/markup"
	"github.com/flemzord/tgsend/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tgsend",
		Short:         "Deliver Markdown text to Telegram with an HTML fallback",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.AddCommand(
		versionCmd(),
		startCmd(),
		sendCmd(),
		previewCmd(),
		configCmd(),
		initCmd(),
		serviceCmd(),
	)
	return root
}

func runParams(cmd *cobra.Command) app.RunParams {
	cfgPath, _ := cmd.Flags().GetString("config")
	return app.RunParams{
		ConfigPath: cfgPath,
		Version:    version,
		Commit:     commit,
		Date:       date,
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tgsend %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the gateway and scheduled broadcasts until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := runParams(cmd)
			params.WatchConfig, _ = cmd.Flags().GetBool("watch")
			return app.Run(cmd.Context(), params)
		},
	}
	cmd.Flags().Bool("watch", false, "Reload when the configuration file changes")
	return cmd
}

func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [text]",
		Short: "Send a message; text is read from stdin when no argument is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			chat, _ := cmd.Flags().GetString("chat")
			htmlOnly, _ := cmd.Flags().GetBool("html")

			text, err := messageText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			params := runParams(cmd)
			cfg, _, err := app.LoadConfig(params.ConfigPath)
			if err != nil {
				return err
			}
			rt, err := app.Build(cmd.Context(), app.BuildParams{
				Config:    cfg,
				Version:   version,
				LogOutput: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			defer func() { _ = rt.Stop(context.WithoutCancel(cmd.Context())) }()

			var res delivery.Result
			if htmlOnly {
				res = rt.Sender.SendFallback(cmd.Context(), chat, text)
			} else {
				res = rt.Sender.Send(cmd.Context(), chat, text)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d chunks)\n", res.Status, len(res.Sent))
			if !res.OK() {
				return res.Err
			}
			return nil
		},
	}
	cmd.Flags().String("chat", "", "Chat ID or @username")
	cmd.Flags().Bool("html", false, "Send as minimally escaped HTML only")
	_ = cmd.MarkFlagRequired("chat")
	return cmd
}

func previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview [text]",
		Short: "Show how a message would be converted and chunked, without sending",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("max")
			if limit <= 0 || limit > markup.MaxMessageLength {
				return fmt.Errorf("--max must be between 1 and %d", markup.MaxMessageLength)
			}

			text, err := messageText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printChunks(out, delivery.PrimaryChunks(text, limit))
			printChunks(out, delivery.FallbackChunks(text, limit))
			return nil
		},
	}
	cmd.Flags().Int("max", markup.MaxMessageLength, "Maximum chunk length in characters")
	return cmd
}

func printChunks(w io.Writer, chunks []channel.Chunk) {
	for i, c := range chunks {
		fmt.Fprintf(w, "--- %s %d/%d (%d chars) ---\n%s\n", c.Dialect, i+1, len(chunks), len([]rune(c.Text)), c.Text)
	}
}

// messageText joins args, or reads stdin when there are none.
func messageText(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return "", errors.New("no text given")
	}
	return text, nil
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [path]",
		Short: "Validate configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit, _ := cmd.Flags().GetString("config")
			if len(args) == 1 {
				explicit = args[0]
			}
			cfg, path, err := app.LoadConfig(explicit)
			if err != nil {
				return err
			}

			gwCfg, err := gateway.ParseConfig(&cfg.Gateway)
			if err != nil {
				return err
			}
			gw := "disabled"
			if gwCfg.Enabled {
				gw = "enabled on " + gwCfg.Bind
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK: %s\n  gateway: %s\n  schedules: %d\n", path, gw, len(cfg.Schedules))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration search path",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, p := range config.SearchPaths() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
		},
	})
	return cmd
}
