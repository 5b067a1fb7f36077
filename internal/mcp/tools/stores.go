package tools

import (
	"context"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/usestring/storeschema-mcp/internal/connector"
	"github.com/usestring/storeschema-mcp/pkg/inference"
)

// describeConcurrency bounds concurrent collection passes in describe_store.
const describeConcurrency = 4

// StoreSummary is one catalog entry.
type StoreSummary struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Layout      string `json:"layout"`
	Description string `json:"description,omitempty"`
}

// ListStoresInput is the input for storeschema_list_stores.
type ListStoresInput struct{}

// ListStoresOutput is the output for storeschema_list_stores.
type ListStoresOutput struct {
	Stores []StoreSummary `json:"stores"`
	Hint   string         `json:"hint,omitempty"`
}

// ToolListStores lists the configured stores without connecting to them.
func ToolListStores(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListStoresInput) (*sdkmcp.CallToolResult, ListStoresOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListStoresInput) (*sdkmcp.CallToolResult, ListStoresOutput, error) {
		configs := d.Stores.Configs()
		out := ListStoresOutput{Stores: make([]StoreSummary, 0, len(configs))}
		for _, c := range configs {
			out.Stores = append(out.Stores, StoreSummary{
				Name:        c.Name,
				Kind:        string(c.Kind),
				Layout:      string(connector.LayoutOf(c.Kind)),
				Description: c.Description,
			})
		}
		if len(out.Stores) == 0 {
			out.Hint = fmt.Sprintf("No stores configured. Add entries to %s.", d.Config.StoresFile)
		} else {
			out.Hint = "Use storeschema_describe_store(store=...) for an overview of one store."
		}
		return nil, out, nil
	}
}

// DescribeStoreInput is the input for storeschema_describe_store.
type DescribeStoreInput struct {
	Store string `json:"store" jsonschema:"Store name from storeschema_list_stores"`
}

// DescribeStoreOutput is the output for storeschema_describe_store.
type DescribeStoreOutput struct {
	Store       string                      `json:"store"`
	Kind        string                      `json:"kind"`
	Layout      string                      `json:"layout"`
	Keys        *inference.KeyResult        `json:"keys,omitempty"`
	Collections []*inference.DocumentResult `json:"collections,omitempty"`
	Warnings    []string                    `json:"warnings,omitempty"`
	Hint        string                      `json:"hint,omitempty"`
}

// ToolDescribeStore runs the pass that fits the store's layout. Document
// stores get one field pass per collection, up to MaxCollections.
func ToolDescribeStore(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DescribeStoreInput) (*sdkmcp.CallToolResult, DescribeStoreOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DescribeStoreInput) (*sdkmcp.CallToolResult, DescribeStoreOutput, error) {
		if input.Store == "" {
			return nil, DescribeStoreOutput{}, ErrInvalidInput("store is required")
		}
		cfg, ok := d.Stores.Config(input.Store)
		if !ok {
			return nil, DescribeStoreOutput{}, ErrNotFound("store", input.Store)
		}

		out := DescribeStoreOutput{
			Store:  cfg.Name,
			Kind:   string(cfg.Kind),
			Layout: string(connector.LayoutOf(cfg.Kind)),
		}

		if connector.LayoutOf(cfg.Kind) != connector.LayoutDocuments {
			res, err := d.InferKeys(ctx, input.Store, "", 0)
			if err != nil {
				return nil, DescribeStoreOutput{}, err
			}
			out.Keys = res
			out.Hint = "Use storeschema_diff(store=...) later to see how the key space moved."
			return nil, out, nil
		}

		ds, err := d.DocumentStore(ctx, input.Store)
		if err != nil {
			return nil, DescribeStoreOutput{}, err
		}
		names, err := ds.Collections(ctx)
		if err != nil {
			return nil, DescribeStoreOutput{}, WrapStoreError(err)
		}
		if limit := d.Config.MaxCollections; limit > 0 && len(names) > limit {
			out.Warnings = append(out.Warnings, fmt.Sprintf("described %d of %d collections (cap %d)", limit, len(names), limit))
			names = names[:limit]
		}

		results := make([]*inference.DocumentResult, len(names))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(describeConcurrency)
		for i, name := range names {
			g.Go(func() error {
				res, err := d.InferDocuments(gctx, input.Store, name)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, DescribeStoreOutput{}, err
		}

		out.Collections = results
		slog.Debug("store described",
			slog.String("store", input.Store),
			slog.Int("collections", len(results)),
		)
		out.Hint = "Use storeschema_json_schema(store=..., collection=...) for a JSON Schema of one collection."
		return nil, out, nil
	}
}
