package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"forceview/internal/repository"
	"forceview/internal/repository/sqlite"
	"forceview/internal/service"
)

func openRepository(path string) (*sqlite.Repository, error) {
	repo, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return repo, nil
}

func importCmd() *cobra.Command {
	var (
		dbPath string
		format string
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the stored graph with a JSON or YAML snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(args[0]), ".")
			}

			return withGraph(cmd, dbPath, func(ctx context.Context, graph *service.GraphService) error {
				result, err := graph.Import(ctx, format, data)
				if err != nil {
					return invalidGraphError{err}
				}
				good.Fprintf(cmd.OutOrStdout(), "Imported %d authors, %d outputs and %d links\n",
					result.Authors, result.Outputs, result.Links)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")
	cmd.Flags().StringVar(&format, "format", "", "Input format: json or yaml (default from extension)")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		dbPath string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export FORMAT",
		Short: "Write the stored graph as json or yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGraph(cmd, dbPath, func(ctx context.Context, graph *service.GraphService) error {
				w := cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create %s: %w", output, err)
					}
					defer f.Close()
					w = f
				}
				return graph.Export(ctx, args[0], w)
			})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func statsCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show counts of the stored graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGraph(cmd, dbPath, func(ctx context.Context, graph *service.GraphService) error {
				stats, err := graph.Stats(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				banner(out, "stats")
				field(out, "authors", stats.Authors)
				field(out, "outputs", stats.Outputs)
				field(out, "authorships", stats.Authorships)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")
	return cmd
}

func authorCmd() *cobra.Command {
	var (
		dbPath string
		author repository.Author
	)

	cmd := &cobra.Command{
		Use:   "author ID",
		Short: "Create or update a stored author",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			author.ID = args[0]
			return withGraph(cmd, dbPath, func(ctx context.Context, graph *service.GraphService) error {
				if err := graph.PutAuthor(ctx, &author); err != nil {
					return err
				}
				good.Fprintf(cmd.OutOrStdout(), "Saved author %s\n", author.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")
	cmd.Flags().StringVar(&author.FirstName, "first", "", "First name")
	cmd.Flags().StringVar(&author.LastName, "last", "", "Last name")
	cmd.Flags().StringVar(&author.ORCID, "orcid", "", "ORCID identifier or orcid.org URL")
	cmd.MarkFlagRequired("last")
	return cmd
}

func outputCmd() *cobra.Command {
	var (
		dbPath string
		output repository.Output
	)

	cmd := &cobra.Command{
		Use:   "output ID",
		Short: "Create or update a stored output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output.ID = args[0]
			return withGraph(cmd, dbPath, func(ctx context.Context, graph *service.GraphService) error {
				if err := graph.PutOutput(ctx, &output); err != nil {
					return err
				}
				good.Fprintf(cmd.OutOrStdout(), "Saved output %s\n", output.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")
	cmd.Flags().StringVar(&output.Title, "title", "", "Title")
	cmd.Flags().StringVar(&output.DOI, "doi", "", "DOI or doi.org URL")
	cmd.MarkFlagRequired("title")
	return cmd
}

func linkCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "link AUTHOR_ID OUTPUT_ID",
		Short: "Record that an author wrote an output",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGraph(cmd, dbPath, func(ctx context.Context, graph *service.GraphService) error {
				if err := graph.AddAuthorship(ctx, args[0], args[1]); err != nil {
					return err
				}
				good.Fprintf(cmd.OutOrStdout(), "Linked %s -> %s\n", args[0], args[1])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")
	return cmd
}

func deleteCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a stored author or output and its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGraph(cmd, dbPath, func(ctx context.Context, graph *service.GraphService) error {
				if err := graph.DeleteNode(ctx, args[0]); err != nil {
					return err
				}
				good.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")
	return cmd
}
