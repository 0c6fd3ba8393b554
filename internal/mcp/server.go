// Package mcp serves the Model Context Protocol methods on top of the
// JSON-RPC dispatcher. Every handler receives the caller identity resolved
// for the HTTP request.
package mcp

import (
	"context"

	"mcpgate/internal/platform/audit"
	"mcpgate/internal/platform/auth"
	"mcpgate/internal/platform/config"
	"mcpgate/internal/platform/models"
	"mcpgate/internal/rpc"
)

// Authorizer checks the caller's role in its organization.
type Authorizer interface {
	Authorize(ctx context.Context, id *auth.Identity, level auth.Level) error
}

// KeyManager is the key administration surface exposed through tools.
type KeyManager interface {
	ListKeys(ctx context.Context, orgID string) ([]*models.APIKey, error)
	RevokeKey(ctx context.Context, orgID, keyID string) (*models.APIKey, error)
}

type Auditor interface {
	Log(ctx context.Context, e *audit.Entry)
}

type Server struct {
	info    config.MCPConfig
	authz   Authorizer
	keys    KeyManager
	auditor Auditor
	tools   *toolRegistry
}

func NewServer(info config.MCPConfig, authz Authorizer, keys KeyManager, auditor Auditor) *Server {
	s := &Server{info: info, authz: authz, keys: keys, auditor: auditor}
	s.tools = newToolRegistry(s)
	return s
}

// Register adds every MCP method to d.
func (s *Server) Register(d *rpc.Dispatcher) {
	d.Handle("initialize", s.handleInitialize)
	d.Handle("notifications/initialized", s.handleInitialized)
	d.Handle("ping", s.handlePing)
	d.Handle("tools/list", s.handleToolsList)
	d.Handle("tools/call", s.handleToolsCall)
	d.Handle("resources/list", s.handleResourcesList)
	d.Handle("resources/read", s.handleResourcesRead)
	d.Handle("prompts/list", s.handlePromptsList)
	d.Handle("prompts/get", s.handlePromptsGet)
}

func (s *Server) handleInitialize(ctx context.Context, id *auth.Identity, req *rpc.Request) (any, error) {
	if _, err := rpc.DecodeParams[InitializeParams](req.Params); err != nil {
		return nil, err
	}

	return &InitializeResult{
		ProtocolVersion: s.info.ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools:     &ListCapability{},
			Resources: &ListCapability{},
			Prompts:   &ListCapability{},
		},
		ServerInfo: ServerInfo{Name: s.info.ServerName, Version: s.info.ServerVersion},
		Context:    callerContext(id),
	}, nil
}

func (s *Server) handleInitialized(ctx context.Context, id *auth.Identity, req *rpc.Request) (any, error) {
	return nil, nil
}

func (s *Server) handlePing(ctx context.Context, id *auth.Identity, req *rpc.Request) (any, error) {
	return struct{}{}, nil
}

// requireAdmin turns an authorization denial into the caller-facing -32002.
func (s *Server) requireAdmin(ctx context.Context, id *auth.Identity) error {
	err := s.authz.Authorize(ctx, id, auth.LevelAdmin)
	if err == nil {
		return nil
	}
	if auth.IsForbidden(err) {
		return rpc.UnauthorizedError(auth.FailureMessage(err))
	}
	return err
}
