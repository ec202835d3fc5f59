package graphsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/importer"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/roamerr"
)

// ImportResult summarises one file import.
type ImportResult struct {
	PageTitle string           `json:"page_title"`
	PageUID   string           `json:"page_uid"`
	Report    *importer.Report `json:"report"`
}

// ImportMarkdown imports markdown content into a page. The page title
// comes from YAML frontmatter when present, otherwise fallbackTitle.
// Frontmatter tags become a leading "#a #b" block.
func (s *Service) ImportMarkdown(ctx context.Context, content []byte, fallbackTitle string) (*ImportResult, error) {
	fm, body := parser.SplitFrontmatter(content)

	title := fallbackTitle
	if fm != nil && fm.Title != "" {
		title = fm.Title
	}
	if strings.TrimSpace(title) == "" {
		return nil, roamerr.Newf(roamerr.KindValidation, "import-markdown", "no title in frontmatter and no fallback")
	}

	pageUID, err := s.GetOrCreatePage(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("create page %q: %w", title, err)
	}

	nodes := parser.Parse(body)
	if tagLine := fm.TagLine(); tagLine != "" {
		nodes = append([]*parser.BlockNode{{Content: tagLine}}, nodes...)
	}

	report, err := s.up.Upload(ctx, pageUID, nodes)
	if err != nil {
		return nil, err
	}
	s.logger.Info("markdown imported",
		slog.String("page", title),
		slog.Int("created", report.Created),
		slog.Int("failed", report.Failed))
	return &ImportResult{PageTitle: title, PageUID: pageUID, Report: report}, nil
}

// jsonBlock is one node of the exported-page JSON interchange format.
type jsonBlock struct {
	BlockText     string      `json:"block_text"`
	BlockChildren []jsonBlock `json:"block_children,omitempty"`
}

// jsonPage is the JSON interchange document: page metadata plus a block
// tree.
type jsonPage struct {
	Metadata   map[string]any `json:"metadata"`
	PageBlocks []jsonBlock    `json:"page_blocks"`
}

// ImportJSON imports a JSON interchange document. The block tree is
// converted directly to block nodes; metadata title and tags are handled
// like frontmatter.
func (s *Service) ImportJSON(ctx context.Context, data []byte, fallbackTitle string) (*ImportResult, error) {
	var doc jsonPage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, roamerr.New(roamerr.KindValidation, "import-json", err)
	}

	title := fallbackTitle
	if t, ok := doc.Metadata["title"].(string); ok && strings.TrimSpace(t) != "" {
		title = strings.TrimSpace(t)
	}
	if strings.TrimSpace(title) == "" {
		return nil, roamerr.Newf(roamerr.KindValidation, "import-json", "no title in metadata and no fallback")
	}

	pageUID, err := s.GetOrCreatePage(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("create page %q: %w", title, err)
	}

	nodes := jsonBlocksToNodes(doc.PageBlocks)
	if tagLine := metadataTagLine(doc.Metadata); tagLine != "" {
		nodes = append([]*parser.BlockNode{{Content: tagLine}}, nodes...)
	}

	report, err := s.up.Upload(ctx, pageUID, nodes)
	if err != nil {
		return nil, err
	}
	s.logger.Info("json imported",
		slog.String("page", title),
		slog.Int("created", report.Created),
		slog.Int("failed", report.Failed))
	return &ImportResult{PageTitle: title, PageUID: pageUID, Report: report}, nil
}

// ImportFile dispatches on the file extension: .json is the interchange
// format, .md/.markdown/.txt are treated as markdown. The filename (sans
// extension) is the fallback page title.
func (s *Service) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	base := filepath.Base(path)
	fallback := strings.TrimSuffix(base, filepath.Ext(base))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return s.ImportJSON(ctx, data, fallback)
	case ".md", ".markdown", ".txt":
		return s.ImportMarkdown(ctx, data, fallback)
	default:
		return nil, roamerr.Newf(roamerr.KindValidation, "import-file", "unsupported file type: %s", filepath.Ext(path))
	}
}

func jsonBlocksToNodes(blocks []jsonBlock) []*parser.BlockNode {
	var nodes []*parser.BlockNode
	for _, b := range blocks {
		if strings.TrimSpace(b.BlockText) == "" {
			continue
		}
		nodes = append(nodes, &parser.BlockNode{
			Content:  strings.TrimSpace(b.BlockText),
			Children: jsonBlocksToNodes(b.BlockChildren),
		})
	}
	return nodes
}

// metadataTagLine renders a metadata "tags" entry (list or comma string)
// as one "#a #b" block.
func metadataTagLine(metadata map[string]any) string {
	raw, ok := metadata["tags"]
	if !ok {
		return ""
	}
	var tags []string
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					tags = append(tags, s)
				}
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				tags = append(tags, s)
			}
		}
	}
	for i, t := range tags {
		tags[i] = "#" + t
	}
	return strings.Join(tags, " ")
}
