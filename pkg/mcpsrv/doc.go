// Package mcpsrv provides an extensible MCP server that infers the structure
// of schemaless stores.
//
// The server samples keys from key-value and object stores (Redis, SQLite
// key/value tables, S3) and documents from document stores (MongoDB,
// PostgreSQL JSON columns), and reports key patterns, field paths and type
// distributions. Stores are declared in a YAML catalog (STORES_FILE).
//
// # Basic Usage
//
// Create a server from the environment and the stores file:
//
//	server, err := mcpsrv.NewServer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// Serve over streamable HTTP instead of stdio:
//
//	server.RunHTTP(ctx, ":8080")
//
// # Extension
//
// Add custom tools using MCP SDK types directly:
//
//	import mcp "github.com/modelcontextprotocol/go-sdk/mcp"
//
//	type CountInput struct {
//	    Store string `json:"store"`
//	}
//
//	type CountOutput struct {
//	    Patterns int `json:"patterns"`
//	}
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithDepsTool(
//	        &mcp.Tool{Name: "count_patterns", Description: "Count key patterns"},
//	        func(d *mcpsrv.Deps) func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	            return func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	                res, ok := d.Results.Keys(in.Store)
//	                if !ok {
//	                    return nil, CountOutput{}, fmt.Errorf("no snapshot for %s", in.Store)
//	                }
//	                return nil, CountOutput{Patterns: len(res.KeyPatterns)}, nil
//	            }
//	        },
//	    ),
//	)
//
// # Configuration
//
// Configure logging and the catalog with options:
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/storeschema-mcp.log"),
//	    mcpsrv.WithStoresFile("/etc/storeschema/stores.yaml"),
//	)
package mcpsrv
