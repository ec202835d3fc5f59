// Package parser converts markdown-like text into nested block trees
// matching the Roam block model. The dialect is deliberately not
// CommonMark: headings, `- ` bullets, and `N.` numbered lines become
// blocks with properties, everything else is a plain block, and nesting
// follows raw leading-whitespace depth.
package parser

import (
	"regexp"
	"strings"
)

var numberedRe = regexp.MustCompile(`^(\d+)\.\s*`)

// Properties carries optional block metadata. The zero value means a
// plain block.
type Properties struct {
	Heading  int  `json:"heading,omitempty"`
	Bullet   bool `json:"bullet,omitempty"`
	Numbered bool `json:"numbered,omitempty"`
}

// IsZero reports whether no property is set.
func (p Properties) IsZero() bool {
	return p.Heading == 0 && !p.Bullet && !p.Numbered
}

// BlockNode is a node in a parsed content tree. Children are ordered
// top-to-bottom as encountered in the source.
type BlockNode struct {
	Content    string       `json:"content"`
	Properties Properties   `json:"properties,omitempty"`
	Children   []*BlockNode `json:"children,omitempty"`
}

// frame is one level of the nesting stack. Heading frames are keyed by
// heading level and are only closed by a later heading; indent frames are
// keyed by raw leading-whitespace count.
type frame struct {
	depth   int
	heading bool
	node    *BlockNode // nil for the root frame
}

// Parse converts text into an ordered sequence of root blocks. It is
// pure and total: malformed input degrades to plain blocks, blank lines
// vanish, and lines whose content is empty after trimming are dropped.
//
// A heading opens a section: subsequent non-heading lines nest under the
// nearest open heading regardless of their own indentation, until a
// heading of equal or shallower level closes the section. Within a
// section, indentation governs nesting as usual. Indentation counts raw
// leading whitespace characters, tabs and spaces one unit each.
func Parse(text string) []*BlockNode {
	root := &BlockNode{}
	stack := []frame{{depth: 0, node: root}}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		// Classification sees the line with leading whitespace removed but
		// trailing whitespace intact, so that bare markers ("- ", "# ")
		// still parse as markers and drop on empty content.
		stripped := strings.TrimLeft(line, " \t")
		indent := len(line) - len(stripped)
		node, depth, isHeading := classify(stripped, indent)
		if node == nil {
			continue
		}

		if isHeading {
			// Close sections and indent frames down to a shallower heading.
			for len(stack) > 1 && (!top(stack).heading || top(stack).depth >= depth) {
				stack = stack[:len(stack)-1]
			}
		} else {
			// Indent frames deeper than this line close; the enclosing
			// heading section stays open.
			for len(stack) > 1 && !top(stack).heading && top(stack).depth >= depth {
				stack = stack[:len(stack)-1]
			}
		}

		parent := top(stack).node
		if parent == nil {
			parent = root
		}
		parent.Children = append(parent.Children, node)
		stack = append(stack, frame{depth: depth, heading: isHeading, node: node})
	}

	return root.Children
}

// classify builds a node from one non-blank line and returns its stack
// depth key (heading level for headings, indent for everything else).
func classify(stripped string, indent int) (node *BlockNode, depth int, isHeading bool) {
	if level, rest, ok := headingLine(stripped); ok {
		content := strings.TrimSpace(rest)
		if content == "" {
			return nil, 0, false
		}
		return &BlockNode{Content: content, Properties: Properties{Heading: level}}, level, true
	}

	if rest, ok := strings.CutPrefix(stripped, "- "); ok {
		content := strings.TrimSpace(rest)
		if content == "" {
			return nil, 0, false
		}
		return &BlockNode{Content: content, Properties: Properties{Bullet: true}}, indent, false
	}

	if m := numberedRe.FindString(stripped); m != "" {
		content := strings.TrimSpace(stripped[len(m):])
		if content == "" {
			return nil, 0, false
		}
		return &BlockNode{Content: content, Properties: Properties{Numbered: true}}, indent, false
	}

	return &BlockNode{Content: strings.TrimSpace(stripped)}, indent, false
}

// headingLine reports whether stripped is a `#…# ` heading. The level is
// clamped to 1..6 (the source system accepted arbitrary depth; we clamp).
func headingLine(stripped string) (level int, rest string, ok bool) {
	n := 0
	for n < len(stripped) && stripped[n] == '#' {
		n++
	}
	if n == 0 || n >= len(stripped) || stripped[n] != ' ' {
		return 0, "", false
	}
	if n > 6 {
		n, rest = 6, stripped[strings.Index(stripped, " "):]
		return n, rest, true
	}
	return n, stripped[n+1:], true
}

func top(stack []frame) frame { return stack[len(stack)-1] }
