package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Tool 1: storeschema_list_stores
	AddTool(srv, &sdkmcp.Tool{
		Name:        "storeschema_list_stores",
		Description: "List the configured stores with their kind (redis, sqlite, s3, mongodb, postgres) and layout (flat, hierarchical, documents). Does not connect to any store. Start here, then pass a store name to the other tools.",
	}, ToolListStores(d))

	// Tool 2: storeschema_describe_store
	AddTool(srv, &sdkmcp.Tool{
		Name:        "storeschema_describe_store",
		Description: "Sample a store and describe its structure in one call. Key stores return {keys: {key_patterns, total_items_scanned, stop_reason, warnings}}; document stores return one field inference per collection (capped by MAX_COLLECTIONS). Use infer_keys or infer_documents to tune a single pass.",
	}, ToolDescribeStore(d))

	// Tool 3: storeschema_infer_keys
	AddTool(srv, &sdkmcp.Tool{
		Name:        "storeschema_infer_keys",
		Description: "Cluster a sample of keys into patterns such as user:<id> or events/2024/. Returns {result: {key_patterns: [{pattern, count, sample_keys, type_histogram, depth}], total_items_scanned, distinct_keys, stop_reason, lookup_failures, warnings}}. variant=flat generalizes separator/ID segments and reports value types where the store can look them up; variant=hierarchical groups by slash prefixes. Only for flat or hierarchical stores.",
	}, ToolInferKeys(d))

	// Tool 4: storeschema_infer_documents
	AddTool(srv, &sdkmcp.Tool{
		Name:        "storeschema_infer_documents",
		Description: "Infer field paths, type distributions and occurrence percentages for one collection of a document store. Returns {result: {fields: [{path, type_distribution: [{type, count, percentage}], occurrence, count}], sample_size, total_count, skipped_documents, stop_reason, warnings}}. Set filter to a jq expression yielding an object to infer over a projection of each document.",
	}, ToolInferDocuments(d))

	// Tool 5: storeschema_json_schema
	AddTool(srv, &sdkmcp.Tool{
		Name:        "storeschema_json_schema",
		Description: "Render a collection's inferred fields as a JSON Schema (draft 2020-12) and validate the sampled documents against it. Returns {schema, conformance: {checked, valid, percentage, failures}, sample_size}. Use it to derive a validator or to spot documents that deviate from the common shape.",
	}, ToolJSONSchema(d))

	// Tool 6: storeschema_diff
	AddTool(srv, &sdkmcp.Tool{
		Name:        "storeschema_diff",
		Description: "Re-run a pass and compare it with the previous snapshot of the same store (or collection). Returns {diff: {added, removed, changed, unchanged}}. The first call only records a baseline. Snapshots also back the storeschema://result resources.",
	}, ToolDiff(d))
}
