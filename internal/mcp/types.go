package mcp

import (
	"encoding/json"

	"mcpgate/internal/platform/auth"
)

type InitializeParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ClientInfo      ClientInfo `json:"clientInfo"`
}

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Context         *CallerContext     `json:"context"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ServerCapabilities struct {
	Tools     *ListCapability `json:"tools,omitempty"`
	Resources *ListCapability `json:"resources,omitempty"`
	Prompts   *ListCapability `json:"prompts,omitempty"`
}

type ListCapability struct {
	ListChanged bool `json:"listChanged"`
}

// Tools

type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type ToolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func ToolResultText(text string) *ToolResult {
	return &ToolResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func ToolResultJSON(data any) (*ToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, err
	}
	return ToolResultText(string(b)), nil
}

// ToolResultError reports a failure the model can see and react to, as
// opposed to a protocol error.
func ToolResultError(message string) *ToolResult {
	return &ToolResult{Content: []ContentBlock{{Type: "text", Text: message}}, IsError: true}
}

// Resources

type ResourceDefinition struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

type ResourcesListResult struct {
	Resources []ResourceDefinition `json:"resources"`
}

type ResourceReadParams struct {
	URI string `json:"uri"`
}

type ResourceReadResult struct {
	Contents []ResourceContent `json:"contents"`
}

type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

// Prompts

type PromptDefinition struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

type PromptsListResult struct {
	Prompts []PromptDefinition `json:"prompts"`
}

type PromptGetParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

type PromptGetResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

type PromptMessage struct {
	Role    string       `json:"role"`
	Content ContentBlock `json:"content"`
}

// Caller context

type CallerContext struct {
	User         *UserInfo         `json:"user"`
	Organization *OrganizationInfo `json:"organization"`
	APIKey       *APIKeyInfo       `json:"apiKey"`
}

type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OrganizationInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type APIKeyInfo struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	TokenPrefix string  `json:"tokenPrefix"`
	UserID      *string `json:"userId,omitempty"`
	LastUsedAt  *int64  `json:"lastUsedAt"`
	ExpiresAt   *int64  `json:"expiresAt"`
	RevokedAt   *int64  `json:"revokedAt,omitempty"`
	CreatedAt   int64   `json:"createdAt"`
}

func callerContext(id *auth.Identity) *CallerContext {
	c := &CallerContext{}
	if id == nil {
		return c
	}
	if id.User != nil {
		c.User = &UserInfo{ID: id.User.ID, Name: id.User.Name, Email: id.User.Email}
	}
	if id.Organization != nil {
		c.Organization = &OrganizationInfo{ID: id.Organization.ID, Name: id.Organization.Name}
	}
	if id.APIKey != nil {
		c.APIKey = apiKeyInfo(id.APIKey)
	}
	return c
}
