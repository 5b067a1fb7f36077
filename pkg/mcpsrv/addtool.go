package mcpsrv

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/storeschema-mcp/internal/mcp/tools"
)

// AddTool registers a tool with the server after checking that the JSON
// encoding of Out's zero value passes the schema the SDK infers for Out.
// A nil slice encodes as null while the inferred schema demands an array,
// so such outputs panic here at startup instead of failing the first call.
//
// Use this instead of [sdkmcp.AddTool] to get the additional check.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	tools.AddTool(srv, t, h)
}
