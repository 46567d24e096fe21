package cli

import (
	"roomboard/internal/model"
	"roomboard/internal/store"

	"github.com/spf13/cobra"
)

func newJournalCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Local log of mutations sent to the rooms API",
	}
	cmd.AddCommand(newJournalListCmd(app))
	return cmd
}

func newJournalListCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent mutations (newest first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := store.Open()
			if err != nil {
				return writeErr(cmd, err)
			}
			j, err := ds.OpenJournal(commandContext(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			defer j.Close()

			entries, err := j.List(commandContext(cmd), limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			if entries == nil {
				entries = []model.Mutation{}
			}
			return writeOut(cmd, app, map[string]any{"data": entries})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries")
	return cmd
}
