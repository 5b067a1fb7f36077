package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	// Prompt 1: Explore a store's structure
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "explore_store",
		Description: "RECOMMENDED: Map the structure of a configured store (key patterns or document fields) and summarize it as a data dictionary. Start here when the store is unfamiliar.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "store",
				Description: "Store name; omit to pick from the catalog",
				Required:    false,
			},
		},
	}, HandleExploreStore(cfg))

	// Prompt 2: Track schema drift
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "track_schema_drift",
		Description: "Compare a store's current structure with its last recorded snapshot and explain what changed.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "store",
				Description: "Store name",
				Required:    true,
			},
			{
				Name:        "collection",
				Description: "Collection name (document stores only)",
				Required:    false,
			},
		},
	}, HandleTrackDrift(cfg))
}
