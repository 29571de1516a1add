package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/WebSims/jstrace/pkg/estree"
	"github.com/WebSims/jstrace/pkg/interpreter"
	"github.com/WebSims/jstrace/pkg/storage"
	"github.com/WebSims/jstrace/pkg/trace"
)

// NewRunCommand builds `jstrace run <program.json>`: decode the parsed
// program, simulate it, and print a summary or the full step trace.
func NewRunCommand(root *rootOptions) *cobra.Command {
	var (
		outputJSON bool
		save       bool
	)
	cmd := &cobra.Command{
		Use:   "run <program.json>",
		Short: "Simulate a parsed program and print its trace",
		Long: `Simulate an ESTree JSON program (as emitted by acorn or espree) and
print a run summary. With --json the full step trace is written to
stdout for downstream viewers; with --save the trace is stored and can
be reloaded later with "jstrace history show".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read program: %w", err)
			}
			program, err := estree.DecodeProgram(data)
			if err != nil {
				return err
			}

			sim := interpreter.New(cfg.Options())
			tr, runErr := sim.Run(program)
			if tr == nil {
				return runErr
			}
			if runErr != nil {
				// Budget overruns still carry a useful partial trace.
				log.Warn().Err(runErr).Msg("run aborted")
			}
			log.Debug().Int("steps", len(tr.Steps)).Str("outcome", string(tr.Outcome)).Msg("simulation finished")

			if save {
				id, err := saveTrace(cmd, cfg.Storage.Path, filepath.Base(args[0]), tr)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved run %s\n", id)
			}

			if outputJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tr)
			}
			printSummary(cmd, tr)
			return runErr
		},
	}
	cmd.Flags().BoolVar(&outputJSON, "json", false, "print the full step trace as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "store the trace for later replay")
	return cmd
}

func saveTrace(cmd *cobra.Command, path, label string, tr *trace.Trace) (string, error) {
	store, err := storage.Open(storagePath(path))
	if err != nil {
		return "", err
	}
	defer func() { _ = store.Close() }()
	return store.SaveTrace(cmd.Context(), label, tr)
}

func storagePath(configured string) string {
	if configured != "" {
		return configured
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "jstrace.db"
	}
	return filepath.Join(home, ".jstrace", "jstrace.db")
}

func printSummary(cmd *cobra.Command, tr *trace.Trace) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "outcome: %s\n", tr.Outcome)
	fmt.Fprintf(out, "steps:   %d\n", len(tr.Steps))
	if tr.ErrorValue != nil {
		fmt.Fprintf(out, "thrown:  %s\n", tr.ErrorValue.Value)
	}
	if final := tr.Final(); final != nil && len(final.Console) > 0 {
		fmt.Fprintln(out, "console:")
		for _, entry := range final.Console {
			fmt.Fprintf(out, "  [%s] %s\n", entry.Method, entry.Text)
		}
	}
}
