package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/usestring/storeschema-mcp/internal/connector"
	"github.com/usestring/storeschema-mcp/internal/mcp/tools"
	"github.com/usestring/storeschema-mcp/pkg/inference"
	"github.com/usestring/storeschema-mcp/pkg/mcpsrv"
)

// globalFlags are shared by all subcommands.
type globalFlags struct {
	storesFile string
	logLevel   string
	logFile    string
}

func (g *globalFlags) serverOptions() []mcpsrv.Option {
	var opts []mcpsrv.Option
	if g.storesFile != "" {
		opts = append(opts, mcpsrv.WithStoresFile(g.storesFile))
	}
	if g.logLevel != "" {
		opts = append(opts, mcpsrv.WithLogLevel(g.logLevel))
	}
	if g.logFile != "" {
		opts = append(opts, mcpsrv.WithLogFile(g.logFile))
	}
	return opts
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "storeschema-mcp",
		Short: "MCP server that infers the structure of schemaless stores",
		Long: "storeschema-mcp samples keys and documents from the stores listed in a YAML catalog " +
			"(Redis, SQLite, S3, MongoDB, PostgreSQL) and reports key patterns, field paths and type distributions " +
			"over the Model Context Protocol. Without a subcommand it serves MCP on stdio.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags, "")
		},
	}

	root.PersistentFlags().StringVar(&flags.storesFile, "stores", "", "stores catalog file (overrides STORES_FILE)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "log file path (overrides LOG_FILE)")

	root.AddCommand(newServeCmd(flags), newStoresCmd(flags), newInspectCmd(flags))
	return root
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var httpAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP on stdio, or on streamable HTTP with --http",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags, httpAddr)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "listen address for streamable HTTP, e.g. :8080 (default: stdio)")
	return cmd
}

func runServe(cmd *cobra.Command, flags *globalFlags, httpAddr string) error {
	server, err := mcpsrv.NewServer(flags.serverOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	ctx := cmd.Context()
	if httpAddr != "" {
		slog.Info("starting storeschema MCP server on HTTP", slog.String("addr", httpAddr))
		err = server.RunHTTP(ctx, httpAddr)
	} else {
		slog.Info("starting storeschema MCP server on stdio")
		err = server.Run(ctx)
	}
	if err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

func newStoresCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stores",
		Short: "Print the validated stores catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := mcpsrv.NewServer(flags.serverOptions()...)
			if err != nil {
				return err
			}
			defer server.Close()

			var out []tools.StoreSummary
			for _, c := range server.Deps().Stores.Configs() {
				out = append(out, tools.StoreSummary{
					Name:        c.Name,
					Kind:        string(c.Kind),
					Layout:      string(connector.LayoutOf(c.Kind)),
					Description: c.Description,
				})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newInspectCmd(flags *globalFlags) *cobra.Command {
	var (
		variant    string
		filter     string
		sampleKeys int
	)
	cmd := &cobra.Command{
		Use:   "inspect <store> [collection]",
		Short: "Run one inference pass and print the result as JSON",
		Long: "inspect runs the pass the store's layout calls for: key inference for flat and hierarchical stores, " +
			"field inference for one collection of a document store.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := mcpsrv.NewServer(flags.serverOptions()...)
			if err != nil {
				return err
			}
			defer server.Close()

			d := server.Deps()
			td := &tools.Deps{Config: d.Config, Stores: d.Stores, Engine: d.Engine, Results: d.Results}
			ctx := cmd.Context()

			cfg, ok := d.Stores.Config(args[0])
			if !ok {
				return tools.ErrNotFound("store", args[0])
			}

			if connector.LayoutOf(cfg.Kind) != connector.LayoutDocuments {
				res, err := td.InferKeys(ctx, args[0], inference.Variant(variant), sampleKeys)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			}

			if len(args) < 2 {
				return fmt.Errorf("store %q holds documents; pass a collection", args[0])
			}
			_, out, err := tools.ToolInferDocuments(td)(ctx, nil, tools.InferDocumentsInput{
				Store:      args[0],
				Collection: args[1],
				Filter:     filter,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out.Result)
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "", "key clustering variant: flat or hierarchical (default: the store's layout)")
	cmd.Flags().IntVar(&sampleKeys, "sample-keys", 0, "sample keys per pattern, 1-10 (flat variant)")
	cmd.Flags().StringVar(&filter, "filter", "", "jq projection applied to each document before inference")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
