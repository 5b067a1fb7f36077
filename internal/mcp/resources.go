package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/storeschema-mcp/internal/mcp/tools"
)

// Resource URI scheme: storeschema://
// Supported URIs:
//   storeschema://result/{store}
//   storeschema://result/{store}/{collection}

const resultURIPrefix = "storeschema://result/"

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "storeschema://result/{store}",
		Name:        "Key Inference Snapshot",
		Description: "Last key inference result recorded for a key-value or object store. Served from memory; the store is not contacted. Run storeschema_describe_store or storeschema_infer_keys first.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceResult)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "storeschema://result/{store}/{collection}",
		Name:        "Field Inference Snapshot",
		Description: "Last unfiltered field inference result recorded for one collection of a document store. Served from memory; the store is not contacted.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceResult)
}

func (s *Server) handleResourceResult(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	uri := req.Params.URI
	store, collection, err := parseResultURI(uri)
	if err != nil {
		return nil, err
	}

	if collection == "" {
		res, ok := s.deps.Results.Keys(store)
		if !ok {
			return nil, sdkmcp.ResourceNotFoundError(uri)
		}
		return toResourceResult(uri, res)
	}

	res, ok := s.deps.Results.Documents(store, collection)
	if !ok {
		return nil, sdkmcp.ResourceNotFoundError(uri)
	}
	return toResourceResult(uri, res)
}

// parseResultURI extracts the store and optional collection from a result URI.
func parseResultURI(uri string) (store, collection string, err error) {
	if !strings.HasPrefix(uri, resultURIPrefix) {
		return "", "", tools.ErrInvalidInput("invalid URI: expected " + resultURIPrefix)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resultURIPrefix), "/")
	if len(parts) > 2 || parts[0] == "" {
		return "", "", tools.ErrInvalidInput("result URI requires a store and at most one collection")
	}

	if store, err = url.PathUnescape(parts[0]); err != nil {
		return "", "", tools.ErrInvalidInput(fmt.Sprintf("invalid store in URI: %v", err))
	}
	if len(parts) == 2 {
		if collection, err = url.PathUnescape(parts[1]); err != nil || collection == "" {
			return "", "", tools.ErrInvalidInput("invalid collection in URI")
		}
	}
	return store, collection, nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
