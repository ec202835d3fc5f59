package parser

import (
	"regexp"
	"strings"
)

var (
	// Single-asterisk emphasis spans become Roam italics. Matching is
	// greedy-first-wins and does not handle nested emphasis; best effort.
	italicRe = regexp.MustCompile(`\*([^*\n]+)\*`)
	// ~~strikethrough~~ spans become Roam highlights.
	highlightRe = regexp.MustCompile(`~~([^~\n]+)~~`)
)

// ProcessBlockText normalises raw block content for Roam: literal `\n`
// sequences become real newlines, leading `[]` / `[ ]` / `[x]` markers
// become TODO/DONE macros, and markdown emphasis delimiters are rewritten
// to Roam's. It is applied per block content, independent of tree shape.
func ProcessBlockText(text string) string {
	text = strings.ReplaceAll(text, `\n`, "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = rewriteMarkers(line)
	}
	text = strings.Join(lines, "\n")

	text = italicRe.ReplaceAllString(text, "__${1}__")
	text = highlightRe.ReplaceAllString(text, "^^${1}^^")
	return text
}

// rewriteMarkers replaces a leading checkbox token on one line with the
// corresponding Roam macro.
func rewriteMarkers(line string) string {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "[ ]"):
		return strings.Replace(line, "[ ]", "{{[[TODO]]}}", 1)
	case strings.HasPrefix(trimmed, "[]"):
		return strings.Replace(line, "[]", "{{[[TODO]]}}", 1)
	case strings.HasPrefix(trimmed, "[x]"):
		return strings.Replace(line, "[x]", "{{[[DONE]]}}", 1)
	}
	return line
}
