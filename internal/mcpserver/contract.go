package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// MarkdownContract describes how markdown text is mapped onto nested
// graph blocks, for LLM consumers composing add_block or import_markdown
// input.
const MarkdownContract = `# Block Markdown Conventions

Markdown sent to this graph is NOT rendered as a document. Each line
becomes one block, and indentation becomes nesting.

## Structure

` + "```" + `markdown
---
title: Page title                  # OPTIONAL frontmatter; title names the page
tags:                              # OPTIONAL; becomes a leading "#a #b" block
  - tag-one
---

# Section heading
- A bullet under the heading
  - Indented: nested under the bullet
1. Numbered items work the same way
Plain lines are blocks too
` + "```" + `

## Rules

1. **One line, one block.** Blank lines are skipped entirely; they do not
   close a section or reset nesting.
2. **Headings open sections.** Every following line nests under the
   nearest heading until a heading of the same or shallower level
   appears, regardless of that line's indentation.
3. **Indentation nests.** Within a section, a deeper-indented line
   becomes a child of the previous shallower line.
4. **Heading levels** follow the number of # characters, clamped to 6.
5. **Task markers:** a leading ` + "`[]`" + ` or ` + "`[ ]`" + ` becomes {{[[TODO]]}},
   a leading ` + "`[x]`" + ` becomes {{[[DONE]]}}.
6. **Inline styles:** *single asterisks* become __italics__ and
   ~~double tildes~~ become ^^highlights^^.
7. **Literal \n** in add_block text splits it into sibling blocks. In
   import_markdown it becomes a line break inside the block instead; use
   real newlines to separate blocks there.
8. **Re-imports duplicate.** Sending the same content twice creates the
   blocks twice; there is no server-side deduplication.
`

func (s *Server) getMarkdownContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkdownContract), nil
}

func (s *Server) readMarkdownContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://markdown-format",
			MIMEType: "text/markdown",
			Text:     MarkdownContract,
		},
	}, nil
}
