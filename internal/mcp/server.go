// Package mcp exposes candidate search and post content over the Model
// Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"article_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"article_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"post_markdown": {
		def:     markdownToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMarkdown },
	},
	"content_excerpt": {
		def:     excerptToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExcerpt },
	},
}

var searchToolDef = mcp.NewTool("article_search",
	mcp.WithDescription("Search published articles that can be mentioned. Returns at most 10 candidates, best match first."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Text typed after the mention trigger"),
	),
)

var getToolDef = mcp.NewTool("article_get",
	mcp.WithDescription("Resolve a published article by id."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Article id"),
	),
)

var markdownToolDef = mcp.NewTool("post_markdown",
	mcp.WithDescription("Return the body of a published post as Markdown."),
	mcp.WithString("slug",
		mcp.Required(),
		mcp.Description("Post slug"),
	),
)

var excerptToolDef = mcp.NewTool("content_excerpt",
	mcp.WithDescription("Derive the listing excerpt of persisted post content in any stored shape."),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("Persisted content: JSON value or legacy text"),
	),
)

// ToolNames returns the registered tool names.
func ToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates an MCP server with every tool registered.
func NewServer(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"folio",
		version,
		server.WithToolCapabilities(true),
	)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run serves the tools over stdio.
func Run(h *Handlers, version string) error {
	return server.ServeStdio(NewServer(h, version))
}
