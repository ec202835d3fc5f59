// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the graph operations as tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/graphsvc"
)

// Server wraps the MCP server with graph tools.
type Server struct {
	mcp *server.MCPServer
	svc *graphsvc.Service
}

// New creates a new MCP server with all graph tools registered.
func New(svc *graphsvc.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_pages",
		mcp.WithDescription("Search page titles in the graph by substring."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Substring to match in page titles")),
	), s.searchPages)

	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Fetch a page's full block tree as markdown or JSON. "+
			"Accepts a page title, a YYYY-MM-DD date, or the aliases today/yesterday/lastweek."),
		mcp.WithString("page", mcp.Required(), mcp.Description("Page title, date, or alias")),
		mcp.WithString("format", mcp.Description("Output format: markdown or json (default json)")),
	), s.getPage)

	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Append text blocks to a page. The page argument may be a title "+
			"(created if missing), a YYYY-MM-DD date, a block UID, or empty for today's daily note. "+
			"Text MUST follow the block markdown conventions; read them first via the "+
			"get_markdown_contract tool or the ansuz://markdown-format resource."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Block text; literal \\n splits into sibling blocks")),
		mcp.WithString("page", mcp.Description("Target page (empty for today's daily note)")),
		mcp.WithString("parent_block", mcp.Description("Optional anchor block content to nest under")),
	), s.addBlock)

	s.mcp.AddTool(mcp.NewTool("import_markdown",
		mcp.WithDescription("Import a markdown document as a nested block tree on a page. "+
			"YAML frontmatter title and tags are honoured. Content MUST follow the block "+
			"markdown conventions (see get_markdown_contract)."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content to import")),
		mcp.WithString("title", mcp.Description("Fallback page title when frontmatter has none")),
	), s.importMarkdown)

	s.mcp.AddTool(mcp.NewTool("link_record",
		mcp.WithDescription("Link an external record (e.g. a DEVONthink item) into the graph: "+
			"a log entry on today's daily note plus a reference on the topic page."),
		mcp.WithString("page", mcp.Required(), mcp.Description("Topic page title")),
		mcp.WithString("record_name", mcp.Required(), mcp.Description("Display name of the record")),
		mcp.WithString("record_link", mcp.Required(), mcp.Description("URL of the record")),
		mcp.WithString("link_type", mcp.Description("Anchor on the topic page: log or ref (default log)")),
		mcp.WithString("comment", mcp.Description("Optional comment appended to the link block")),
	), s.linkRecord)

	s.mcp.AddTool(mcp.NewTool("page_references",
		mcp.WithDescription("Find the titles of pages that reference the given page."),
		mcp.WithString("page", mcp.Required(), mcp.Description("Page title to find references to")),
	), s.pageReferences)

	s.mcp.AddTool(mcp.NewTool("get_markdown_contract",
		mcp.WithDescription("Returns the block markdown conventions the importer applies. "+
			"Call this before composing content for add_block or import_markdown."),
	), s.getMarkdownContract)

	// Resource: markdown conventions.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://markdown-format", "Block Markdown Conventions",
			mcp.WithResourceDescription("How markdown is mapped onto nested graph blocks."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMarkdownContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	titles, err := s.svc.SearchPages(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(titles, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := req.RequireString("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := req.GetString("format", graphsvc.FormatJSON)
	out, err := s.svc.GetPage(ctx, page, format, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) addBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page := req.GetString("page", "")
	parentBlock := req.GetString("parent_block", "")

	report, err := s.svc.AddBlocks(ctx, page, parentBlock, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created %d block(s), %d failed", report.Created, report.Failed)), nil
}

func (s *Server) importMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title := req.GetString("title", "")

	res, err := s.svc.ImportMarkdown(ctx, []byte(content), title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) linkRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := req.RequireString("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("record_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	link, err := req.RequireString("record_link")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.svc.LinkRecord(ctx, graphsvc.LinkRequest{
		PageTitle:  page,
		RecordName: name,
		RecordLink: link,
		LinkType:   req.GetString("link_type", ""),
		Comment:    req.GetString("comment", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) pageReferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := req.RequireString("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refs, err := s.svc.PageReferences(ctx, page)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(refs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
