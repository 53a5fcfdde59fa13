package main

import (
	"github.com/spf13/cobra"

	"github.com/johnquangdev/meeting-sync/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-sync/pkg/jobcontext"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var accountID string
	var externalID string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest one upstream meeting and print the run report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}

			runCtx := jobcontext.WithTrigger(cmd.Context(), jobcontext.TriggerCLI)
			report, err := a.Ingest.Sync(runCtx, accountID, externalID)
			if err != nil {
				return err
			}
			return writeJSON(cmd, presenter.ToSyncReportResponse(report))
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account that owns the meeting")
	cmd.Flags().StringVar(&externalID, "external", "", "Meeting id in the transcription service")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("external")

	return cmd
}
