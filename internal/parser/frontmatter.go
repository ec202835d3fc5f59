package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter holds metadata extracted from a leading YAML block.
type Frontmatter struct {
	Title string
	Tags  []string
	Raw   map[string]interface{}
}

// SplitFrontmatter separates YAML frontmatter (between leading ---
// delimiters) from the markdown body. If no frontmatter is found, or the
// YAML is invalid, the entire content is returned as body with a nil
// Frontmatter.
func SplitFrontmatter(data []byte) (*Frontmatter, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var raw map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &raw); err != nil {
		return nil, string(data)
	}

	fm := &Frontmatter{Raw: raw}
	if t, ok := raw["title"].(string); ok {
		fm.Title = strings.TrimSpace(t)
	}
	fm.Tags = frontmatterTags(raw["tags"])
	return fm, body
}

// TagLine renders frontmatter tags as a single "#a #b" block string, or
// "" when there are no tags.
func (f *Frontmatter) TagLine() string {
	if f == nil || len(f.Tags) == 0 {
		return ""
	}
	parts := make([]string, len(f.Tags))
	for i, t := range f.Tags {
		parts[i] = "#" + t
	}
	return strings.Join(parts, " ")
}

// frontmatterTags accepts either a YAML list or a comma-separated string.
func frontmatterTags(raw interface{}) []string {
	var out []string
	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
