package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"forceview/internal/domain"
	"forceview/internal/render"
	"forceview/internal/service"
	"forceview/internal/view"
)

// maxSettleTicks bounds the layout when reheats keep it running
const maxSettleTicks = 10000

func loadSnapshot(path string) (*domain.Snapshot, error) {
	snap, err := service.LoadSnapshotFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := snap.Resolve(); err != nil {
		return nil, invalidGraphError{err}
	}
	return snap, nil
}

func renderCmd() *cobra.Command {
	var (
		output   string
		seed     uint64
		maxTicks int
	)

	cmd := &cobra.Command{
		Use:   "render SNAPSHOT",
		Short: "Run the layout to rest and write the graph as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			viewCfg := cfg.ViewConfig()
			if cmd.Flags().Changed("seed") {
				viewCfg.Seed = seed
			}

			snap, err := loadSnapshot(args[0])
			if err != nil {
				return err
			}
			ctrl, err := view.New(viewCfg, snap, view.WithRoutes(cfg.ViewRoutes()))
			if err != nil {
				return invalidGraphError{err}
			}
			ticks := ctrl.Settle(maxTicks)

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := render.SVG(w, ctrl.Snapshot()); err != nil {
				return fmt.Errorf("render: %w", err)
			}

			if output != "" && output != "-" {
				nodes, links := ctrl.Len()
				good.Fprintf(cmd.ErrOrStderr(), "Wrote %s", output)
				subtle.Fprintf(cmd.ErrOrStderr(), " (%d nodes, %d links, %d ticks, alpha %.4f)\n",
					nodes, links, ticks, ctrl.Alpha())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Layout seed")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", maxSettleTicks, "Upper bound on layout ticks")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check SNAPSHOT",
		Short: "Validate a snapshot and summarize it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			snap, err := service.LoadSnapshotFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			banner(out, "check "+filepath.Base(args[0]))

			graph := service.NewGraphService(nil, service.NewEventBus())
			if err := graph.Validate(snap); err != nil {
				bad.Fprintf(out, "  invalid: %v\n", err)
				return invalidGraphError{err}
			}

			counts := snap.Counts()
			field(out, "authors", counts[domain.GroupAuthor])
			field(out, "outputs", counts[domain.GroupOutput])
			field(out, "links", len(snap.Links))

			routes := cfg.ViewRoutes()
			field(out, "author route", routes[domain.GroupAuthor]+"{id}")
			field(out, "output route", routes[domain.GroupOutput]+"{id}")
			for _, n := range snap.Nodes {
				if _, err := routes.Resolve(n); err != nil {
					warn.Fprintf(out, "  node %s has no detail route (group %d)\n", n.ID, int(n.Group))
				}
			}
			good.Fprintln(out, "  ok")
			return nil
		},
	}
}

func routeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route SNAPSHOT NODE_ID",
		Short: "Print the location a double-click on a node navigates to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			snap, err := loadSnapshot(args[0])
			if err != nil {
				return err
			}

			ctrl, err := view.New(cfg.ViewConfig(), snap, view.WithRoutes(cfg.ViewRoutes()))
			if err != nil {
				return invalidGraphError{err}
			}
			defer ctrl.Close()

			location, err := ctrl.DoubleClick(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), location)
			return nil
		},
	}
}

// withGraph opens the configured database and runs fn with a graph service
func withGraph(cmd *cobra.Command, dbPath string, fn func(ctx context.Context, graph *service.GraphService) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}

	repo, err := openRepository(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	return fn(cmd.Context(), service.NewGraphService(repo, service.NewEventBus()))
}
