package mcpsrv

import (
	"github.com/usestring/storeschema-mcp/internal/cache"
	"github.com/usestring/storeschema-mcp/internal/config"
	"github.com/usestring/storeschema-mcp/internal/connector"
	"github.com/usestring/storeschema-mcp/pkg/inference"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same stores and engine as builtin tools.
type Deps struct {
	Config  *config.Config
	Stores  *connector.Registry
	Engine  *inference.Engine
	Results *cache.ResultStore
}
