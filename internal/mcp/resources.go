package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"mcpgate/internal/platform/auth"
	"mcpgate/internal/rpc"
)

const (
	organizationURI = "mcp://organization"
	userURI         = "mcp://user"
	apiKeyURI       = "mcp://api-key"
)

var resourceDefinitions = []ResourceDefinition{
	{
		URI:         organizationURI,
		Name:        "Organization",
		Description: "The organization that owns the API key",
		MimeType:    "application/json",
	},
	{
		URI:         userURI,
		Name:        "User",
		Description: "The user the API key was issued to",
		MimeType:    "application/json",
	},
	{
		URI:         apiKeyURI,
		Name:        "API key",
		Description: "Metadata of the API key used for this request",
		MimeType:    "application/json",
	},
}

func (s *Server) handleResourcesList(ctx context.Context, id *auth.Identity, req *rpc.Request) (any, error) {
	return &ResourcesListResult{Resources: resourceDefinitions}, nil
}

func (s *Server) handleResourcesRead(ctx context.Context, id *auth.Identity, req *rpc.Request) (any, error) {
	params, err := rpc.DecodeParamsRequired[ResourceReadParams](req.Params)
	if err != nil {
		return nil, err
	}
	if params.URI == "" {
		return nil, rpc.InvalidParamsError("Resource uri is required")
	}

	caller := callerContext(id)
	var data any
	switch params.URI {
	case organizationURI:
		data = caller.Organization
	case userURI:
		data = caller.User
	case apiKeyURI:
		data = caller.APIKey
	default:
		return nil, rpc.InvalidParamsError(fmt.Sprintf("Resource '%s' not found", params.URI))
	}

	text, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, err
	}
	return &ResourceReadResult{Contents: []ResourceContent{{
		URI:      params.URI,
		MimeType: "application/json",
		Text:     string(text),
	}}}, nil
}
