package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/deskhub/internal/app"
)

var version = "dev"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	prefsPath  string
	envFile    string
}

func (g *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		EnvFile:    g.envFile,
		Version:    version,
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "deskhub: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "deskhub",
		Short:         "Terminal dashboard for your task, notification and chat webhooks",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/deskhub/config.toml)")
	root.PersistentFlags().StringVar(&flags.prefsPath, "prefs", "", "preferences file (default ~/.config/deskhub/prefs.toml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "dotenv file with DESKHUB_* overrides (default ./.env)")

	root.AddCommand(
		newRunCmd(flags),
		newRefreshCmd(flags),
		newCacheCmd(flags),
		newLogsCmd(flags),
		newVersionCmd(),
	)
	return root
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	var (
		headless     bool
		ephemeral    bool
		conversation string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the dashboard, or only the sync engine with --headless",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := flags.options()
			opts.Headless = headless
			opts.Ephemeral = ephemeral
			opts.Stderr = cmd.ErrOrStderr()
			opts.ConversationID = conversation
			return app.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "keep the cache warm without the dashboard, logging to stderr")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "keep the cache in memory, nothing is written to storage")
	cmd.Flags().StringVar(&conversation, "conversation", "", "conversation to open at startup")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the deskhub version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "deskhub %s\n", version)
		},
	}
}
