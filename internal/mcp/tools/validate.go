package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/storeschema-mcp/pkg/docvalue"
	"github.com/usestring/storeschema-mcp/pkg/inference"
	"github.com/usestring/storeschema-mcp/pkg/jsonschema"
)

// JSONSchemaInput is the input for storeschema_json_schema.
type JSONSchemaInput struct {
	Store                string `json:"store" jsonschema:"Store name from storeschema_list_stores"`
	Collection           string `json:"collection" jsonschema:"Collection name"`
	LenientRequired      bool   `json:"lenient_required,omitempty" jsonschema:"Mark a property required when present in every document even if sometimes null (default: false)"`
	AdditionalProperties *bool  `json:"additional_properties,omitempty" jsonschema:"Set additionalProperties on every object schema (default: unset)"`
	MaxFailures          int    `json:"max_failures,omitempty" jsonschema:"Max non-conforming sample documents to report (default: 5)"`
}

// JSONSchemaOutput is the output for storeschema_json_schema.
type JSONSchemaOutput struct {
	Schema      any                     `json:"schema"`
	Conformance *jsonschema.Conformance `json:"conformance"`
	SampleSize  int                     `json:"sample_size"`
	PassID      string                  `json:"pass_id"`
	Warnings    []string                `json:"warnings,omitempty"`
}

// ToolJSONSchema renders a collection's inferred fields as a JSON Schema and
// validates the sampled documents against it.
func ToolJSONSchema(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input JSONSchemaInput) (*sdkmcp.CallToolResult, JSONSchemaOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input JSONSchemaInput) (*sdkmcp.CallToolResult, JSONSchemaOutput, error) {
		if input.Store == "" {
			return nil, JSONSchemaOutput{}, ErrInvalidInput("store is required")
		}

		var docs []docvalue.Object
		res, err := d.InferDocuments(ctx, input.Store, input.Collection,
			inference.WithDocumentVisitor(func(doc docvalue.Object) {
				docs = append(docs, doc)
			}),
		)
		if err != nil {
			return nil, JSONSchemaOutput{}, err
		}
		d.Results.PutDocuments(res)

		opts := jsonschema.DefaultOptions()
		opts.StrictRequired = !input.LenientRequired
		opts.AdditionalProperties = input.AdditionalProperties
		schema := jsonschema.FromResult(res, opts)

		validator, err := jsonschema.NewValidator(schema)
		if err != nil {
			return nil, JSONSchemaOutput{}, fmt.Errorf("compiling inferred schema: %w", err)
		}

		rendered, err := ToAny(schema)
		if err != nil {
			return nil, JSONSchemaOutput{}, fmt.Errorf("rendering schema: %w", err)
		}

		return nil, JSONSchemaOutput{
			Schema:      rendered,
			Conformance: validator.Conformance(docs, input.MaxFailures),
			SampleSize:  res.SampleSize,
			PassID:      res.PassID,
			Warnings:    res.Warnings,
		}, nil
	}
}
