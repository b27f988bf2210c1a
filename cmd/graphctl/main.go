// Command graphctl renders, checks and manages author/output graphs from
// the command line.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"forceview/internal/config"
	"forceview/internal/view"
)

// Version is set at build time via ldflags
var Version = "dev"

// Exit codes
const (
	ExitOK           = 0
	ExitError        = 1
	ExitInvalidGraph = 2
)

var configPath string

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", bad.Sprint("Error:"), err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "graphctl",
		Short: "Lay out and manage author/output graphs",
		Long: `graphctl works with the graphs served by the forceview server.

It renders a snapshot to SVG after running the force layout to rest,
validates snapshots, resolves double-click locations and moves graphs
in and out of the SQLite database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (YAML or TOML)")

	root.AddCommand(
		renderCmd(),
		checkCmd(),
		routeCmd(),
		importCmd(),
		exportCmd(),
		statsCmd(),
		authorCmd(),
		outputCmd(),
		linkCmd(),
		deleteCmd(),
	)
	return root
}

// loadConfig reads --config or the default locations, then the environment
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, _, err = config.LoadFromPath(configPath)
	} else {
		cfg, _, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// invalidGraphError marks failures caused by the graph's content
type invalidGraphError struct {
	err error
}

func (e invalidGraphError) Error() string { return e.err.Error() }
func (e invalidGraphError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var invalid invalidGraphError
	if errors.As(err, &invalid) || errors.Is(err, view.ErrUnknownGroup) {
		return ExitInvalidGraph
	}
	return ExitError
}
