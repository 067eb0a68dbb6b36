package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/five82/deskhub/internal/app"
	"github.com/five82/deskhub/internal/resource"
)

func newCacheCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local cache",
	}
	cmd.AddCommand(newCacheShowCmd(flags))
	return cmd
}

func newCacheShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <kind>",
		Short: "Print the cached items of a collection as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := resource.ParseKind(args[0])
			if err != nil {
				return err
			}
			opts := flags.options()
			opts.Headless = true
			opts.RestoreOnly = true
			opts.Stderr = cmd.ErrOrStderr()

			s, err := app.Build(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			items, err := s.CachedItems(cmd.Context(), kind)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		},
	}
}
