package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mcpgate/internal/platform/audit"
	"mcpgate/internal/platform/auth"
	"mcpgate/internal/platform/config"
	"mcpgate/internal/platform/database/dbtest"
	"mcpgate/internal/platform/models"
	"mcpgate/internal/platform/provision"
	"mcpgate/internal/rpc"
)

type fixture struct {
	dispatcher *rpc.Dispatcher
	svc        *provision.Service
	auditLog   *audit.Logger
	owner      *auth.Identity
	member     *auth.Identity
	orgKey     *auth.Identity
	spareKeyID string
}

func identityFor(t *testing.T, svc *provision.Service, org *models.Organization, user *models.User, name string) *auth.Identity {
	t.Helper()
	req := provision.KeyRequest{OrganizationID: org.ID, Name: name}
	if user != nil {
		req.UserID = user.ID
	}
	issued, err := svc.IssueKey(context.Background(), req)
	require.NoError(t, err)
	return &auth.Identity{User: user, Organization: org, APIKey: issued.Key}
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := dbtest.New(t)
	svc := provision.NewService(db)

	org, err := svc.CreateOrganization(ctx, "Acme Corp")
	require.NoError(t, err)
	alice, err := svc.CreateUser(ctx, org.ID, "Alice Johnson", "alice@example.com", "")
	require.NoError(t, err)
	charlie, err := svc.CreateUser(ctx, org.ID, "Charlie Brown", "charlie@example.com", "")
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, alice.ID, org.ID, models.RoleOwner)
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, charlie.ID, org.ID, models.RoleMember)
	require.NoError(t, err)

	f := &fixture{
		svc:      svc,
		auditLog: audit.NewLogger(db),
		owner:    identityFor(t, svc, org, alice, "Alice's key"),
		member:   identityFor(t, svc, org, charlie, "Charlie's key"),
		orgKey:   identityFor(t, svc, org, nil, "Deploy key"),
	}
	f.spareKeyID = identityFor(t, svc, org, nil, "Spare key").APIKey.ID

	server := NewServer(
		config.MCPConfig{ServerName: "mcpgate", ServerVersion: "test", ProtocolVersion: "2025-06-18"},
		auth.NewAuthorizer(svc.Memberships),
		svc,
		f.auditLog,
	)
	f.dispatcher = rpc.NewDispatcher()
	server.Register(f.dispatcher)
	return f
}

// call dispatches body as id and returns the marshalled response.
func (f *fixture) call(t *testing.T, id *auth.Identity, body string) map[string]any {
	t.Helper()
	entries, _, failure := rpc.Parse([]byte(body))
	require.Nil(t, failure)

	responses := f.dispatcher.Process(context.Background(), id, entries)
	require.Len(t, responses, 1)

	raw, err := json.Marshal(responses[0])
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func resultOf(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	require.Nil(t, resp["error"], "unexpected error: %v", resp["error"])
	result, ok := resp["result"].(map[string]any)
	require.True(t, ok)
	return result
}

func errorOf(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	e, ok := resp["error"].(map[string]any)
	require.True(t, ok, "expected an error response, got %v", resp)
	return e
}

func toolText(t *testing.T, result map[string]any) string {
	t.Helper()
	content := result["content"].([]any)
	require.Len(t, content, 1)
	block := content[0].(map[string]any)
	assert.Equal(t, "text", block["type"])
	return block["text"].(string)
}

func TestInitialize(t *testing.T) {
	f := setup(t)

	result := resultOf(t, f.call(t, f.owner, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","clientInfo":{"name":"inspector","version":"1.0"}}}`))
	assert.Equal(t, "2025-06-18", result["protocolVersion"])
	assert.Equal(t, map[string]any{"name": "mcpgate", "version": "test"}, result["serverInfo"])

	caps := result["capabilities"].(map[string]any)
	assert.Contains(t, caps, "tools")
	assert.Contains(t, caps, "resources")
	assert.Contains(t, caps, "prompts")

	caller := result["context"].(map[string]any)
	assert.Equal(t, "alice@example.com", caller["user"].(map[string]any)["email"])
	assert.Equal(t, "Acme Corp", caller["organization"].(map[string]any)["name"])
	assert.Equal(t, "Alice's key", caller["apiKey"].(map[string]any)["name"])
}

func TestInitializeWithOrganizationKey(t *testing.T) {
	f := setup(t)

	result := resultOf(t, f.call(t, f.orgKey, `{"jsonrpc":"2.0","id":1,"method":"Initialize"}`))
	caller := result["context"].(map[string]any)
	assert.Nil(t, caller["user"])
	assert.NotNil(t, caller["organization"])
}

func TestPing(t *testing.T) {
	f := setup(t)
	resp := f.call(t, f.member, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	assert.Equal(t, map[string]any{}, resultOf(t, resp))
	assert.Equal(t, float64(1), resp["id"])
}

func TestToolsList(t *testing.T) {
	f := setup(t)
	result := resultOf(t, f.call(t, f.member, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))

	var names []string
	for _, tool := range result["tools"].([]any) {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"echo", "whoami", "list_api_keys", "revoke_api_key"}, names)
}

func TestToolsCallEcho(t *testing.T) {
	f := setup(t)
	resp := f.call(t, f.member, `{"jsonrpc":"2.0","method":"tools/call","id":1,"params":{"name":"echo","arguments":{"text":"hi"}}}`)
	result := resultOf(t, resp)
	assert.Equal(t, "Echo: hi", toolText(t, result))
	assert.Equal(t, false, result["isError"])
}

func TestToolsCallErrors(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name string
		body string
		code float64
		data any
	}{
		{
			"unknown tool",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"rm_rf"}}`,
			rpc.CodeInvalidParams, "Tool 'rm_rf' not found",
		},
		{
			"missing params",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call"}`,
			rpc.CodeInvalidParams, "params required",
		},
		{
			"missing name",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`,
			rpc.CodeInvalidParams, "Tool name is required",
		},
		{
			"missing echo text",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{}}}`,
			rpc.CodeInvalidParams, "Missing required argument 'text'",
		},
		{
			"member calling admin tool",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_api_keys"}}`,
			rpc.CodeUnauthorized, "Admin access required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := errorOf(t, f.call(t, f.member, tt.body))
			assert.Equal(t, tt.code, e["code"])
			assert.Equal(t, tt.data, e["data"])
		})
	}
}

func TestAdminToolsRequireUserMembership(t *testing.T) {
	f := setup(t)
	e := errorOf(t, f.call(t, f.orgKey, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_api_keys"}}`))
	assert.Equal(t, float64(rpc.CodeUnauthorized), e["code"])
	assert.Equal(t, "Authorization Required", e["message"])
}

func TestListAPIKeys(t *testing.T) {
	f := setup(t)
	result := resultOf(t, f.call(t, f.owner, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_api_keys"}}`))

	text := toolText(t, result)
	var payload struct {
		APIKeys []APIKeyInfo `json:"apiKeys"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.Len(t, payload.APIKeys, 4)
	assert.NotContains(t, text, "digest")

	f.auditLog.Wait()
	entries, err := f.auditLog.ListByOrg(context.Background(), f.owner.Organization.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "api_key.list", entries[0].Action)
	assert.Equal(t, f.owner.Organization.ID, entries[0].ResourceID)
	assert.Equal(t, f.owner.User.ID, entries[0].UserID)
	assert.Equal(t, float64(4), entries[0].Metadata["count"])
}

func TestRevokeAPIKey(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"revoke_api_key","arguments":{"id":"` + f.spareKeyID + `"}}}`
	result := resultOf(t, f.call(t, f.owner, body))
	assert.Equal(t, false, result["isError"])

	key, err := f.svc.Keys.GetByID(ctx, f.spareKeyID)
	require.NoError(t, err)
	assert.True(t, key.Revoked())

	f.auditLog.Wait()
	entries, err := f.auditLog.ListByOrg(ctx, f.owner.Organization.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "api_key.revoke", entries[0].Action)
	assert.Equal(t, f.spareKeyID, entries[0].ResourceID)
	assert.Equal(t, f.owner.User.ID, entries[0].UserID)

	missing := resultOf(t, f.call(t, f.owner, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"revoke_api_key","arguments":{"id":"nope"}}}`))
	assert.Equal(t, true, missing["isError"])
	assert.Equal(t, "API key 'nope' not found", toolText(t, missing))
}

func TestResources(t *testing.T) {
	f := setup(t)

	list := resultOf(t, f.call(t, f.member, `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`))
	assert.Len(t, list["resources"], 3)

	read := resultOf(t, f.call(t, f.member, `{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"mcp://organization"}}`))
	contents := read["contents"].([]any)
	require.Len(t, contents, 1)
	content := contents[0].(map[string]any)
	assert.Equal(t, "mcp://organization", content["uri"])

	var org OrganizationInfo
	require.NoError(t, json.Unmarshal([]byte(content["text"].(string)), &org))
	assert.Equal(t, "Acme Corp", org.Name)

	e := errorOf(t, f.call(t, f.member, `{"jsonrpc":"2.0","id":3,"method":"resources/read","params":{"uri":"mcp://billing"}}`))
	assert.Equal(t, float64(rpc.CodeInvalidParams), e["code"])
	assert.Equal(t, "Resource 'mcp://billing' not found", e["data"])
}

func TestPrompts(t *testing.T) {
	f := setup(t)

	list := resultOf(t, f.call(t, f.member, `{"jsonrpc":"2.0","id":1,"method":"prompts/list"}`))
	assert.Len(t, list["prompts"], 2)

	got := resultOf(t, f.call(t, f.member, `{"jsonrpc":"2.0","id":2,"method":"prompts/get","params":{"name":"greeting","arguments":{"name":"Dana"}}}`))
	messages := got["messages"].([]any)
	require.Len(t, messages, 1)
	text := messages[0].(map[string]any)["content"].(map[string]any)["text"].(string)
	assert.Contains(t, text, "Dana")
	assert.Contains(t, text, "Acme Corp")

	e := errorOf(t, f.call(t, f.member, `{"jsonrpc":"2.0","id":3,"method":"prompts/get","params":{"name":"greeting"}}`))
	assert.Equal(t, "Missing required argument 'name'", e["data"])

	e = errorOf(t, f.call(t, f.member, `{"jsonrpc":"2.0","id":4,"method":"prompts/get","params":{"name":"haiku"}}`))
	assert.Equal(t, float64(rpc.CodeInvalidParams), e["code"])
	assert.Equal(t, "Prompt 'haiku' not found", e["data"])
}

func TestRevokeWithoutAdminIsNotAudited(t *testing.T) {
	f := setup(t)
	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"revoke_api_key","arguments":{"id":"` + f.spareKeyID + `"}}}`
	e := errorOf(t, f.call(t, f.member, body))
	assert.Equal(t, float64(rpc.CodeUnauthorized), e["code"])

	key, err := f.svc.Keys.GetByID(context.Background(), f.spareKeyID)
	require.NoError(t, err)
	assert.False(t, key.Revoked())

}
