// Package mcpserver exposes the tool registry as a Model Context Protocol
// server over stdio.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Rrens/db-assistant/internal/tools"
)

const serverName = "db-assistant"

// New builds an MCP server with every registry tool registered.
func New(registry *tools.Registry, version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(true))
	for _, spec := range registry.Specs("") {
		s.AddTool(newTool(spec), handler(registry, spec.Name))
	}
	return s
}

// ServeStdio blocks serving MCP requests on stdin/stdout.
func ServeStdio(registry *tools.Registry, version string) error {
	return server.ServeStdio(New(registry, version))
}

func newTool(spec tools.Spec) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
	for _, p := range spec.Params {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}

		switch p.Type {
		case tools.TypeInteger:
			if n, ok := p.Default.(int); ok {
				props = append(props, mcp.DefaultNumber(float64(n)))
			}
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		default:
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}
	return mcp.NewTool(spec.Name, opts...)
}

func handler(registry *tools.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := registry.Call(ctx, name, tools.Args(request.GetArguments()))
		if !result.OK() {
			return mcp.NewToolResultError(result.Text()), nil
		}
		return mcp.NewToolResultText(result.Text()), nil
	}
}
