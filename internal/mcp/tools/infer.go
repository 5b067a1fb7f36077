package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/storeschema-mcp/pkg/docquery"
	"github.com/usestring/storeschema-mcp/pkg/inference"
)

// InferKeysInput is the input for storeschema_infer_keys.
type InferKeysInput struct {
	Store      string `json:"store" jsonschema:"Store name from storeschema_list_stores"`
	Variant    string `json:"variant,omitempty" jsonschema:"Clustering variant: flat (separator/ID-suffix) or hierarchical (slash prefixes). Default: the store's layout"`
	SampleKeys int    `json:"sample_keys,omitempty" jsonschema:"Sample keys per pattern for the flat variant (1-10, default 10)"`
}

// InferKeysOutput is the output for storeschema_infer_keys.
type InferKeysOutput struct {
	Result *inference.KeyResult `json:"result"`
	Hint   string               `json:"hint,omitempty"`
}

// ToolInferKeys clusters a sample of a key-value store's keys into patterns.
func ToolInferKeys(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input InferKeysInput) (*sdkmcp.CallToolResult, InferKeysOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input InferKeysInput) (*sdkmcp.CallToolResult, InferKeysOutput, error) {
		if input.Store == "" {
			return nil, InferKeysOutput{}, ErrInvalidInput("store is required")
		}
		if input.SampleKeys < 0 {
			return nil, InferKeysOutput{}, ErrInvalidInput("sample_keys must be positive")
		}

		res, err := d.InferKeys(ctx, input.Store, inference.Variant(input.Variant), input.SampleKeys)
		if err != nil {
			return nil, InferKeysOutput{}, err
		}

		hint := ""
		if res.StopReason.Truncated() {
			hint = "The sample was capped; counts describe the sample, not the whole store."
		}
		return nil, InferKeysOutput{Result: res, Hint: hint}, nil
	}
}

// InferDocumentsInput is the input for storeschema_infer_documents.
type InferDocumentsInput struct {
	Store      string `json:"store" jsonschema:"Store name from storeschema_list_stores"`
	Collection string `json:"collection" jsonschema:"Collection name (MongoDB collection, or table.column for PostgreSQL JSON columns)"`
	Filter     string `json:"filter,omitempty" jsonschema:"Optional jq expression applied to each sampled document before inference; it must yield an object, e.g. '{name, address}'. Documents for which it yields nothing are skipped"`
}

// InferDocumentsOutput is the output for storeschema_infer_documents.
type InferDocumentsOutput struct {
	Result *inference.DocumentResult `json:"result"`
	Filter string                    `json:"filter,omitempty"`
	Hint   string                    `json:"hint,omitempty"`
}

// ToolInferDocuments infers field paths and type distributions for one
// collection of a document store.
func ToolInferDocuments(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input InferDocumentsInput) (*sdkmcp.CallToolResult, InferDocumentsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input InferDocumentsInput) (*sdkmcp.CallToolResult, InferDocumentsOutput, error) {
		if input.Store == "" {
			return nil, InferDocumentsOutput{}, ErrInvalidInput("store is required")
		}

		var opts []inference.PassOption
		if input.Filter != "" {
			p, err := docquery.Compile(input.Filter)
			if err != nil {
				return nil, InferDocumentsOutput{}, ErrInvalidInput(err.Error())
			}
			opts = append(opts, inference.WithProjection(p.Project))
		}

		res, err := d.InferDocuments(ctx, input.Store, input.Collection, opts...)
		if err != nil {
			return nil, InferDocumentsOutput{}, err
		}

		out := InferDocumentsOutput{Result: res, Filter: input.Filter}
		switch {
		case input.Filter != "" && res.SkippedDocuments == res.SampleSize && res.SampleSize > 0:
			out.Hint = "The filter produced no object for any sampled document; check the expression against storeschema_infer_documents without a filter."
		case input.Filter == "":
			out.Hint = fmt.Sprintf("Use storeschema_json_schema(store=%q, collection=%q) to turn these fields into a JSON Schema.", input.Store, input.Collection)
		}
		return nil, out, nil
	}
}
