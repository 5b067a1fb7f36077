package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleExploreStore implements the store exploration workflow.
func HandleExploreStore(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		store := req.Params.Arguments["store"]

		var sb strings.Builder

		sb.WriteString("# Explore a Data Store\n\n")
		sb.WriteString("You are a data engineer documenting an unfamiliar store. ")
		sb.WriteString("Your goal is a concise data dictionary: what keys or fields exist, what types they hold and how consistently.\n\n")

		sb.WriteString("## Catalog\n\n")
		if len(cfg.Stores) == 0 {
			sb.WriteString("No stores are configured. Ask the user to add entries to the stores file.\n\n")
		} else {
			sb.WriteString("| Store | Kind | Layout |\n")
			sb.WriteString("|-------|------|--------|\n")
			for _, s := range cfg.Stores {
				fmt.Fprintf(&sb, "| %s | %s | %s |\n", s.Name, s.Kind, s.Layout)
			}
			sb.WriteString("\n")
		}

		sb.WriteString("## Context Usage Guide\n\n")
		sb.WriteString("- Every result is a **sample**. Check `stop_reason`: anything other than `exhausted` means counts describe the sample, not the store\n")
		sb.WriteString("- `warnings` report caps that were hit (patterns, prefixes, field paths, collections)\n")
		sb.WriteString("- **Resources** (`storeschema://result/...`) return the last pass without touching the store\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		if store != "" {
			fmt.Fprintf(&sb, "1. **Describe** - `storeschema_describe_store(store=%q)`\n", store)
		} else {
			sb.WriteString("1. **Pick a store** - `storeschema_list_stores()`, then `storeschema_describe_store(store=...)`\n")
		}
		sb.WriteString("2. **Key stores** (flat, hierarchical):\n")
		sb.WriteString("   - Read `key_patterns` in order; high `count` patterns are the core entities\n")
		sb.WriteString("   - `type_histogram` shows value types per pattern; mixed types usually mean two entities share a prefix\n")
		sb.WriteString("   - Re-run `storeschema_infer_keys(store=..., variant=\"hierarchical\")` for path-like keys\n")
		sb.WriteString("3. **Document stores**:\n")
		fmt.Fprintf(&sb, "   - `describe_store` covers at most %d collections; use `storeschema_infer_documents` for the rest\n", cfg.MaxCollections)
		sb.WriteString("   - `occurrence` below 100 marks optional fields; more than one entry in `type_distribution` marks polymorphic fields\n")
		sb.WriteString("   - Narrow large documents with `filter`, e.g. `filter: \"{id: ._id, profile}\"`\n")
		sb.WriteString("4. **Validate** - `storeschema_json_schema(store=..., collection=...)`; low `conformance.percentage` means the shape varies\n\n")

		sb.WriteString("## Output Format\n\n")
		sb.WriteString("For each pattern or collection: name, approximate count, fields or value types, and notable inconsistencies.\n")

		return &sdkmcp.GetPromptResult{
			Description: "Guide for mapping a store's structure",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
