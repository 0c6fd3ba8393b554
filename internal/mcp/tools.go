package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mcpgate/internal/platform/audit"
	"mcpgate/internal/platform/auth"
	"mcpgate/internal/platform/models"
	"mcpgate/internal/platform/repositories"
	"mcpgate/internal/rpc"
)

type toolHandler func(ctx context.Context, id *auth.Identity, args json.RawMessage) (*ToolResult, error)

type Tool struct {
	Definition ToolDefinition
	AdminOnly  bool
	Handler    toolHandler
}

// toolRegistry keeps tools in registration order for tools/list.
type toolRegistry struct {
	tools  []*Tool
	byName map[string]*Tool
}

func newToolRegistry(s *Server) *toolRegistry {
	r := &toolRegistry{byName: make(map[string]*Tool)}

	r.register(&Tool{
		Definition: ToolDefinition{
			Name:        "echo",
			Description: "Echo back the provided text",
			InputSchema: objectSchema(map[string]any{
				"text": stringProperty("Text to echo back"),
			}, "text"),
		},
		Handler: s.toolEcho,
	})
	r.register(&Tool{
		Definition: ToolDefinition{
			Name:        "whoami",
			Description: "Describe the user, organization and API key making this request",
			InputSchema: objectSchema(nil),
		},
		Handler: s.toolWhoami,
	})
	r.register(&Tool{
		Definition: ToolDefinition{
			Name:        "list_api_keys",
			Description: "List the API keys of your organization (admin only)",
			InputSchema: objectSchema(nil),
		},
		AdminOnly: true,
		Handler:   s.toolListAPIKeys,
	})
	r.register(&Tool{
		Definition: ToolDefinition{
			Name:        "revoke_api_key",
			Description: "Revoke an API key of your organization (admin only)",
			InputSchema: objectSchema(map[string]any{
				"id": stringProperty("ID of the API key to revoke"),
			}, "id"),
		},
		AdminOnly: true,
		Handler:   s.toolRevokeAPIKey,
	})

	return r
}

func (r *toolRegistry) register(t *Tool) {
	r.tools = append(r.tools, t)
	r.byName[t.Definition.Name] = t
}

func (r *toolRegistry) get(name string) (*Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

func (r *toolRegistry) definitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition)
	}
	return defs
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProperty(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func (s *Server) handleToolsList(ctx context.Context, id *auth.Identity, req *rpc.Request) (any, error) {
	return &ToolsListResult{Tools: s.tools.definitions()}, nil
}

func (s *Server) handleToolsCall(ctx context.Context, id *auth.Identity, req *rpc.Request) (any, error) {
	params, err := rpc.DecodeParamsRequired[ToolCallParams](req.Params)
	if err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, rpc.InvalidParamsError("Tool name is required")
	}

	tool, ok := s.tools.get(params.Name)
	if !ok {
		return nil, rpc.InvalidParamsError(fmt.Sprintf("Tool '%s' not found", params.Name))
	}

	if tool.AdminOnly {
		if err := s.requireAdmin(ctx, id); err != nil {
			return nil, err
		}
	}

	return tool.Handler(ctx, id, params.Arguments)
}

type echoArgs struct {
	Text *string `json:"text"`
}

func (s *Server) toolEcho(ctx context.Context, id *auth.Identity, args json.RawMessage) (*ToolResult, error) {
	a, err := rpc.DecodeParams[echoArgs](args)
	if err != nil {
		return nil, err
	}
	if a.Text == nil {
		return nil, missingArgument("text")
	}
	return ToolResultText("Echo: " + *a.Text), nil
}

func (s *Server) toolWhoami(ctx context.Context, id *auth.Identity, args json.RawMessage) (*ToolResult, error) {
	return ToolResultJSON(callerContext(id))
}

func (s *Server) toolListAPIKeys(ctx context.Context, id *auth.Identity, args json.RawMessage) (*ToolResult, error) {
	keys, err := s.keys.ListKeys(ctx, id.Organization.ID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}

	infos := make([]*APIKeyInfo, 0, len(keys))
	for _, k := range keys {
		infos = append(infos, apiKeyInfo(k))
	}

	if s.auditor != nil {
		entry := audit.NewEntry(id, "api_key.list", "organization", id.Organization.ID)
		entry.Metadata = map[string]any{"count": len(infos), "via": "tools/call"}
		s.auditor.Log(ctx, entry)
	}
	return ToolResultJSON(map[string]any{"apiKeys": infos})
}

type revokeArgs struct {
	ID string `json:"id"`
}

func (s *Server) toolRevokeAPIKey(ctx context.Context, id *auth.Identity, args json.RawMessage) (*ToolResult, error) {
	a, err := rpc.DecodeParams[revokeArgs](args)
	if err != nil {
		return nil, err
	}
	keyID := strings.TrimSpace(a.ID)
	if keyID == "" {
		return nil, missingArgument("id")
	}

	key, err := s.keys.RevokeKey(ctx, id.Organization.ID, keyID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ToolResultError(fmt.Sprintf("API key '%s' not found", keyID)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("revoke api key: %w", err)
	}

	if s.auditor != nil {
		entry := audit.NewEntry(id, "api_key.revoke", "api_key", key.ID)
		entry.Metadata = map[string]any{"name": key.Name, "via": "tools/call"}
		s.auditor.Log(ctx, entry)
	}

	return ToolResultJSON(map[string]any{"revoked": apiKeyInfo(key)})
}

func missingArgument(name string) *rpc.Error {
	return rpc.InvalidParamsError(fmt.Sprintf("Missing required argument '%s'", name))
}

func apiKeyInfo(k *models.APIKey) *APIKeyInfo {
	return &APIKeyInfo{
		ID:          k.ID,
		Name:        k.Name,
		TokenPrefix: k.TokenPrefix,
		UserID:      k.UserID,
		LastUsedAt:  k.LastUsedAt,
		ExpiresAt:   k.ExpiresAt,
		RevokedAt:   k.RevokedAt,
		CreatedAt:   k.CreatedAt,
	}
}
