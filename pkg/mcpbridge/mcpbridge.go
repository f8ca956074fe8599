// Package mcpbridge optionally exposes the Tool Registry (pkg/tools)
// as an MCP server, so any MCP-speaking client (an IDE, a chat client)
// can call the same tools the voice pipeline calls — grounded on
// SPEC_FULL §11's domain-stack wiring for
// github.com/modelcontextprotocol/go-sdk. This is an alternate front
// door onto the registry, not part of the voice-commit dispatch path:
// it bypasses cache/cooldown/chaining and runs each call directly,
// since an MCP caller already supplies validated arguments.
package mcpbridge

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lokutor-ai/gibberish/pkg/tools"
)

// Server wraps an MCP server exposing every tool in a Registry.
type Server struct {
	mcp *mcp.Server
}

// New builds a Server for every tool currently registered. Tools
// registered after New is called are not picked up — call New again
// if the registry changes at runtime.
func New(registry *tools.Registry, name, version string) *Server {
	s := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)

	for _, toolName := range registry.Names() {
		t, ok := registry.Get(toolName)
		if !ok {
			continue
		}
		mcp.AddTool(s, &mcp.Tool{
			Name:        t.Name(),
			Description: t.Description(),
		}, makeHandler(t))
	}

	return &Server{mcp: s}
}

// rawArgs is the generic input shape accepted from MCP callers: a flat
// JSON object, forwarded to the tool unmodified (schema validation is
// the caller's responsibility over MCP, unlike the voice path which
// validates post-parse).
type rawArgs map[string]any

func makeHandler(t tools.Tool) mcp.ToolHandlerFor[rawArgs, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, args rawArgs) (*mcp.CallToolResult, any, error) {
		result, err := t.Execute(ctx, map[string]any(args))
		if err != nil {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
			}, nil, nil
		}

		payload, err := json.Marshal(result.Payload)
		if err != nil {
			return nil, nil, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		}, nil, nil
	}
}

// Run serves the MCP server over transport until ctx is cancelled.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcp.Run(ctx, transport)
}
