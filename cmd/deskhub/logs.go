package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/deskhub/internal/config"
	"github.com/five82/deskhub/internal/logging"
	"github.com/five82/deskhub/internal/logtail"
)

func newLogsCmd(flags *globalFlags) *cobra.Command {
	var (
		lines int
		level string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of the dashboard log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			minLevel, err := logging.ParseLevel(level)
			if err != nil {
				return err
			}
			if err := config.LoadDotEnv(flags.envFile); err != nil {
				return err
			}
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}

			tail, err := logtail.Read(cfg.LogPath(), lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range logtail.Filter(tail, minLevel) {
				fmt.Fprintln(out, e.Raw)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "number of lines to read, 0 for all")
	cmd.Flags().StringVar(&level, "level", "debug", "minimum level to show (debug, info, warn, error)")
	return cmd
}
