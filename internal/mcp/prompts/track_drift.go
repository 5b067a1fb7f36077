package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleTrackDrift implements the schema drift workflow.
func HandleTrackDrift(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		args := req.Params.Arguments
		store := args["store"]
		collection := args["collection"]

		target := fmt.Sprintf("store=%q", store)
		uri := "storeschema://result/" + store
		if collection != "" {
			target += fmt.Sprintf(", collection=%q", collection)
			uri += "/" + collection
		}

		var sb strings.Builder

		sb.WriteString("# Track Schema Drift\n\n")
		sb.WriteString("Compare the current structure of a store with its last snapshot and explain the changes to the user.\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		fmt.Fprintf(&sb, "1. Read `%s`. If it is missing there is no snapshot yet\n", uri)
		fmt.Fprintf(&sb, "2. Call `storeschema_diff(%s)`. The first call only records a baseline; call it again to compare\n", target)
		sb.WriteString("3. Explain the diff:\n")
		sb.WriteString("   - `added` - new key patterns or field paths\n")
		sb.WriteString("   - `removed` - patterns or fields no longer sampled (absence from a sample is not proof of deletion)\n")
		sb.WriteString("   - `changed` - type or occurrence shifts; `types +string` means a new type appeared\n\n")

		sb.WriteString("## Tips\n\n")
		sb.WriteString("- Both passes are samples; small occurrence changes are noise\n")
		sb.WriteString("- A new type on an existing field is the most likely source of consumer breakage\n")

		return &sdkmcp.GetPromptResult{
			Description: "Guide for detecting schema drift",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
