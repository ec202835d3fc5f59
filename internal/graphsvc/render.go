package graphsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/datefmt"
	"github.com/starford/ansuz/internal/roamapi"
	"github.com/starford/ansuz/internal/roamerr"
)

// Output formats for GetPage.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// PageTree is a pulled page: title plus the recursive block tree.
type PageTree struct {
	Title    string      `json:":node/title"`
	String   string      `json:":block/string"`
	UID      string      `json:":block/uid"`
	Order    int         `json:":block/order"`
	Children []*PageTree `json:":block/children"`
}

// ResolvePageAlias expands the conventional page-name aliases — "today",
// "yesterday", "lastweek", or a YYYY-MM-DD date — into daily-note
// titles. Anything else passes through unchanged.
func (s *Service) ResolvePageAlias(name string) string {
	today := s.now()
	switch name {
	case "today":
		return datefmt.RoamDate(today)
	case "yesterday":
		return datefmt.RoamDate(today.AddDate(0, 0, -1))
	case "lastweek":
		return datefmt.RoamDate(today.AddDate(0, 0, -7))
	}
	if datefmt.IsISODate(name) {
		if d, err := datefmt.ParseISODate(name); err == nil {
			return datefmt.RoamDate(d)
		}
	}
	return name
}

// GetPageTree fetches a page's full block tree by title or alias.
func (s *Service) GetPageTree(ctx context.Context, name string) (*PageTree, error) {
	title := s.ResolvePageAlias(name)
	uid, err := s.PageUID(ctx, title)
	if err != nil {
		return nil, err
	}
	if uid == "" {
		return nil, roamerr.Newf(roamerr.KindNotFound, "get-page", "no page with title %q", title)
	}

	raw, err := s.api.Pull(ctx, roamapi.SelectorPageTree, roamapi.BlockUIDRef(uid))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, roamerr.Newf(roamerr.KindNotFound, "get-page", "no content for page %q", title)
	}

	var tree PageTree
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("decode page tree: %w", err)
	}
	if tree.UID == "" {
		tree.UID = uid
	}
	sortTree(&tree)
	return &tree, nil
}

// GetPage renders a page as indented JSON or markdown bullets. prefix,
// when non-empty, is prepended to every markdown line (the DEVONthink
// annotation workflow uses this).
func (s *Service) GetPage(ctx context.Context, name, format, prefix string) (string, error) {
	tree, err := s.GetPageTree(ctx, name)
	if err != nil {
		return "", err
	}

	switch format {
	case FormatJSON, "":
		out, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case FormatMarkdown:
		if prefix != "" && !strings.HasSuffix(prefix, " ") {
			prefix += " "
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s# %s\n", prefix, tree.Title)
		renderMarkdown(&b, tree.Children, 0, prefix)
		return b.String(), nil
	default:
		return "", roamerr.Newf(roamerr.KindValidation, "get-page", "invalid format %q", format)
	}
}

// sortTree orders every children list by :block/order.
func sortTree(t *PageTree) {
	sort.SliceStable(t.Children, func(i, j int) bool {
		return t.Children[i].Order < t.Children[j].Order
	})
	for _, c := range t.Children {
		sortTree(c)
	}
}

func renderMarkdown(b *strings.Builder, nodes []*PageTree, depth int, prefix string) {
	for _, n := range nodes {
		fmt.Fprintf(b, "%s%s- %s\n", prefix, strings.Repeat("\t", depth), n.String)
		renderMarkdown(b, n.Children, depth+1, prefix)
	}
}

// SetClock overrides the service clock; tests use a fixed date so daily
// note titles are stable.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// SetSleep overrides the settle-delay sleeper; tests use a no-op.
func (s *Service) SetSleep(sleep func(ctx context.Context, d time.Duration) error) { s.sleep = sleep }
