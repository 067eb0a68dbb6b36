package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/deskhub/internal/app"
	"github.com/five82/deskhub/internal/resource"
)

func newRefreshCmd(flags *globalFlags) *cobra.Command {
	var conversation string

	cmd := &cobra.Command{
		Use:   "refresh <kind>",
		Short: "Fetch one collection now and update the cache",
		Long: "Fetch one collection now and update the cache.\n\n" +
			"Kinds: tasks, notifications, actions, conversations, history.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := resource.ParseKind(args[0])
			if err != nil {
				return err
			}
			opts := flags.options()
			opts.Stderr = cmd.ErrOrStderr()
			opts.ConversationID = conversation

			status, meta, err := app.Refresh(cmd.Context(), opts, kind)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tOUTCOME\tITEMS\tON SERVER\tUNREAD\tUPDATED")
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
				kind, status.LastOutcome, meta.Len, meta.Count, meta.UnreadCount,
				meta.LastUpdated.Local().Format(time.DateTime))
			if err := w.Flush(); err != nil {
				return err
			}
			if meta.LastError != nil {
				return fmt.Errorf("%s: %w", kind.Label(), meta.LastError)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&conversation, "conversation", "", "conversation id, required for history")
	return cmd
}
