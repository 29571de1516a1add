package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WebSims/jstrace/pkg/storage"
)

// NewHistoryCommand builds `jstrace history` with its list/show/delete
// subcommands over the trace store.
func NewHistoryCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved runs",
	}
	cmd.AddCommand(newHistoryListCommand(root))
	cmd.AddCommand(newHistoryShowCommand(root))
	cmd.AddCommand(newHistoryDeleteCommand(root))
	return cmd
}

func openStore(root *rootOptions) (*storage.TraceStore, error) {
	cfg, err := root.loadConfig()
	if err != nil {
		return nil, err
	}
	return storage.Open(storagePath(cfg.Storage.Path))
}

func newHistoryListCommand(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(root)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved runs")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s %6d steps  %s  %s\n",
					r.CreatedAt.Format("2006-01-02 15:04:05"), r.Outcome, r.StepCount, r.ID, r.Label)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}

func newHistoryShowCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a saved run's step trace as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(root)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			steps, err := store.LoadStepsJSON(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(steps, '\n'))
			return err
		},
	}
}

func newHistoryDeleteCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(root)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			return store.DeleteRun(cmd.Context(), args[0])
		},
	}
}
