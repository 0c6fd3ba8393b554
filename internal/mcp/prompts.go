package mcp

import (
	"context"
	"fmt"
	"strings"

	"mcpgate/internal/platform/auth"
	"mcpgate/internal/rpc"
)

type promptRenderer func(id *auth.Identity, args map[string]string) *PromptGetResult

type prompt struct {
	definition PromptDefinition
	render     promptRenderer
}

var prompts = []prompt{
	{
		definition: PromptDefinition{
			Name:        "greeting",
			Description: "Greet someone on behalf of your organization",
			Arguments: []PromptArgument{
				{Name: "name", Description: "Who to greet", Required: true},
			},
		},
		render: renderGreeting,
	},
	{
		definition: PromptDefinition{
			Name:        "organization_summary",
			Description: "Summarize the organization and the credentials in use",
		},
		render: renderOrganizationSummary,
	},
}

func findPrompt(name string) (*prompt, bool) {
	for i := range prompts {
		if prompts[i].definition.Name == name {
			return &prompts[i], true
		}
	}
	return nil, false
}

func (s *Server) handlePromptsList(ctx context.Context, id *auth.Identity, req *rpc.Request) (any, error) {
	defs := make([]PromptDefinition, 0, len(prompts))
	for _, p := range prompts {
		defs = append(defs, p.definition)
	}
	return &PromptsListResult{Prompts: defs}, nil
}

func (s *Server) handlePromptsGet(ctx context.Context, id *auth.Identity, req *rpc.Request) (any, error) {
	params, err := rpc.DecodeParamsRequired[PromptGetParams](req.Params)
	if err != nil {
		return nil, err
	}

	p, ok := findPrompt(params.Name)
	if !ok {
		return nil, rpc.InvalidParamsError(fmt.Sprintf("Prompt '%s' not found", params.Name))
	}

	for _, arg := range p.definition.Arguments {
		if arg.Required && strings.TrimSpace(params.Arguments[arg.Name]) == "" {
			return nil, missingArgument(arg.Name)
		}
	}

	return p.render(id, params.Arguments), nil
}

func userMessage(text string) PromptMessage {
	return PromptMessage{Role: "user", Content: ContentBlock{Type: "text", Text: text}}
}

func renderGreeting(id *auth.Identity, args map[string]string) *PromptGetResult {
	org := "our organization"
	if id != nil && id.Organization != nil {
		org = id.Organization.Name
	}
	return &PromptGetResult{
		Description: "Greeting for " + args["name"],
		Messages: []PromptMessage{
			userMessage(fmt.Sprintf("Write a short, friendly greeting to %s on behalf of %s.", args["name"], org)),
		},
	}
}

func renderOrganizationSummary(id *auth.Identity, _ map[string]string) *PromptGetResult {
	caller := callerContext(id)

	var b strings.Builder
	b.WriteString("Summarize the following account context in a few sentences.\n\n")
	if caller.Organization != nil {
		fmt.Fprintf(&b, "Organization: %s (%s)\n", caller.Organization.Name, caller.Organization.ID)
	}
	if caller.User != nil {
		fmt.Fprintf(&b, "User: %s <%s>\n", caller.User.Name, caller.User.Email)
	} else {
		b.WriteString("User: none (organization-level key)\n")
	}
	if caller.APIKey != nil {
		fmt.Fprintf(&b, "API key: %s (%s)\n", caller.APIKey.Name, caller.APIKey.TokenPrefix)
	}

	return &PromptGetResult{
		Description: "Organization summary",
		Messages:    []PromptMessage{userMessage(b.String())},
	}
}
