// Package cli wires the jstrace commands. The interpreter core stays free
// of logging so traces are deterministic; all operational logging happens
// out here.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/WebSims/jstrace/pkg/driver"
)

const Version = "0.1.0"

type rootOptions struct {
	configPath string
	debug      bool
}

// NewRootCommand builds the jstrace command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "jstrace",
		Short: "Replayable stepping traces for a JavaScript subset",
		Long: `jstrace simulates a parsed JavaScript program (ESTree JSON) and records
every scope push and pop, hoisting pass, statement and expression
transition, heap mutation, and console call as an immutable step a
viewer can scrub forward and backward.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if opts.debug {
				level = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to jstrace.yml (defaults apply when unset)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	return cmd
}

// loadConfig resolves the effective configuration for a command.
func (o *rootOptions) loadConfig() (driver.Config, error) {
	if o.configPath == "" {
		return driver.Default(), nil
	}
	cfg, err := driver.Load(o.configPath)
	if err != nil {
		return driver.Config{}, err
	}
	log.Debug().Str("path", o.configPath).Msg("loaded config")
	return cfg, nil
}
