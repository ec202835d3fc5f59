// Package graphsvc implements the high-level graph operations: page and
// daily-note resolution, anchor blocks, block appends, search, imports,
// and DEVONthink record linking. It orchestrates the parser, the
// importer, and the typed API client.
package graphsvc

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/datefmt"
	"github.com/starford/ansuz/internal/importer"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/roamapi"
	"github.com/starford/ansuz/internal/roamerr"
)

// uidRe matches the opaque 9-character alphanumeric UIDs the backend
// assigns at creation time.
var uidRe = regexp.MustCompile(`^[a-zA-Z0-9]{9}$`)

// settleAttempts and settleDelay pace the poll for a page UID right
// after create-page; the backend needs a moment before the entity is
// queryable.
const (
	settleAttempts = 5
	settleDelay    = time.Second
)

// Service exposes graph-level operations over a roamapi.API.
type Service struct {
	api    roamapi.API
	up     *importer.Uploader
	retry  importer.RetryConfig
	logger *slog.Logger

	// uidCache maps a page argument to its resolved UID for the current
	// run only. Never durable across runs.
	uidCache map[string]string

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Service. logger may be nil.
func New(api roamapi.API, upCfg importer.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:      api,
		up:       importer.New(api, upCfg, logger),
		retry:    upCfg.Retry,
		logger:   logger,
		uidCache: make(map[string]string),
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// queryRetry runs a lookup under the transient retry policy, the same
// policy the uploader applies to its writes.
func (s *Service) queryRetry(ctx context.Context, op, query string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := importer.Do(ctx, s.retry, s.sleep, op, func(ctx context.Context) error {
		var qerr error
		raw, qerr = s.api.Query(ctx, query)
		return qerr
	})
	return raw, err
}

// writeRetry submits a write under the transient retry policy.
func (s *Service) writeRetry(ctx context.Context, req roamapi.WriteRequest) error {
	return importer.Do(ctx, s.retry, s.sleep, "write/"+req.Action(), func(ctx context.Context) error {
		return s.api.Write(ctx, req)
	})
}

// PageUID looks up a page's UID by exact title. Returns "" with no error
// when the page does not exist: absence is an expected outcome for
// lookups used as existence checks.
func (s *Service) PageUID(ctx context.Context, title string) (string, error) {
	raw, err := s.queryRetry(ctx, "q/page-uid", roamapi.QueryPageUID(title))
	if err != nil {
		return "", err
	}
	uid, _ := roamapi.ScalarString(raw)
	return uid, nil
}

// CreatePage creates a page with the given title.
func (s *Service) CreatePage(ctx context.Context, title string) error {
	return s.writeRetry(ctx, roamapi.NewCreatePage(title))
}

// GetOrCreatePage resolves a page UID by title, creating the page on
// first use. After a create it polls briefly until the new entity is
// queryable.
func (s *Service) GetOrCreatePage(ctx context.Context, title string) (string, error) {
	uid, err := s.PageUID(ctx, title)
	if err != nil || uid != "" {
		return uid, err
	}

	if err := s.CreatePage(ctx, title); err != nil {
		return "", err
	}
	for i := 0; i < settleAttempts; i++ {
		if err := s.sleep(ctx, settleDelay); err != nil {
			return "", err
		}
		if uid, err = s.PageUID(ctx, title); err != nil {
			return "", err
		}
		if uid != "" {
			return uid, nil
		}
	}
	return "", roamerr.Newf(roamerr.KindNotFound, "get-or-create-page",
		"page %q not queryable after create", title)
}

// DailyNoteUID resolves (creating if needed) the daily note for a date.
func (s *Service) DailyNoteUID(ctx context.Context, date time.Time) (string, error) {
	return s.GetOrCreatePage(ctx, datefmt.RoamDate(date))
}

// ResolveParent turns a page argument into a parent UID using the
// conventional heuristics: empty means today's daily note, YYYY-MM-DD
// means that day's note, a 9-character alphanumeric string is taken to
// already be a UID, anything else is a page title (find-or-create).
// Resolutions are cached for the duration of the run.
func (s *Service) ResolveParent(ctx context.Context, page string) (string, error) {
	if uid, ok := s.uidCache[page]; ok {
		return uid, nil
	}

	var uid string
	var err error
	switch {
	case page == "":
		uid, err = s.DailyNoteUID(ctx, s.now())
	case datefmt.IsISODate(page):
		var d time.Time
		if d, err = datefmt.ParseISODate(page); err != nil {
			return "", roamerr.Newf(roamerr.KindValidation, "resolve-parent", "invalid date %q", page)
		}
		uid, err = s.DailyNoteUID(ctx, d)
	case uidRe.MatchString(page):
		uid = page
	default:
		uid, err = s.GetOrCreatePage(ctx, page)
	}
	if err != nil {
		return "", err
	}
	if uid != "" {
		s.uidCache[page] = uid
	}
	return uid, nil
}

// AnchorBlock finds a block on a page by exact content, creating it at
// the top of the page on first use. This query-before-write lookup is
// the one place a dedup check applies; it is not a true idempotent
// write.
func (s *Service) AnchorBlock(ctx context.Context, pageUID, content string) (string, error) {
	raw, err := s.queryRetry(ctx, "q/anchor-block", roamapi.QueryBlockUIDByContent(pageUID, content))
	if err != nil {
		return "", err
	}
	if uid, ok := roamapi.ScalarString(raw); ok {
		return uid, nil
	}

	if err := s.writeRetry(ctx, roamapi.NewCreateBlock(pageUID, content, 0)); err != nil {
		return "", err
	}
	raw, err = s.queryRetry(ctx, "q/anchor-block", roamapi.QueryBlockUIDByContent(pageUID, content))
	if err != nil {
		return "", err
	}
	uid, ok := roamapi.ScalarString(raw)
	if !ok {
		return "", roamerr.Newf(roamerr.KindNotFound, "anchor-block",
			"anchor %q not queryable after create", content)
	}
	return uid, nil
}

// AddBlocks appends text to a page (or to a named anchor block under
// it). Text is normalised via ProcessBlockText and split on newlines,
// one block per line.
func (s *Service) AddBlocks(ctx context.Context, page, parentBlock, text string) (*importer.Report, error) {
	if strings.TrimSpace(text) == "" {
		return nil, roamerr.Newf(roamerr.KindValidation, "add-blocks", "block text must not be empty")
	}

	parentUID, err := s.ResolveParent(ctx, page)
	if err != nil {
		return nil, err
	}
	if parentBlock != "" {
		if parentUID, err = s.AnchorBlock(ctx, parentUID, parentBlock); err != nil {
			return nil, err
		}
	}

	var nodes []*parser.BlockNode
	for _, line := range strings.Split(parser.ProcessBlockText(text), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		nodes = append(nodes, &parser.BlockNode{Content: strings.TrimSpace(line)})
	}
	return s.up.Upload(ctx, parentUID, nodes)
}

// Upload sends a pre-built block tree under the resolved parent.
func (s *Service) Upload(ctx context.Context, parentUID string, nodes []*parser.BlockNode) (*importer.Report, error) {
	return s.up.Upload(ctx, parentUID, nodes)
}

// SearchPages returns titles of pages containing the given substring.
func (s *Service) SearchPages(ctx context.Context, substr string) ([]string, error) {
	if substr == "" {
		return nil, roamerr.Newf(roamerr.KindValidation, "search-pages", "search string must not be empty")
	}
	raw, err := s.api.Query(ctx, roamapi.QueryPageTitlesContaining(substr))
	if err != nil {
		return nil, err
	}
	return roamapi.StringSlice(raw), nil
}

// PageReferences returns titles of pages that reference the given page.
func (s *Service) PageReferences(ctx context.Context, title string) ([]string, error) {
	raw, err := s.api.Query(ctx, roamapi.QueryPageReferences(title))
	if err != nil {
		return nil, err
	}
	return roamapi.StringSlice(raw), nil
}

// BlockContent fetches a single block's content by UID.
func (s *Service) BlockContent(ctx context.Context, uid string) (string, error) {
	raw, err := s.api.Query(ctx, roamapi.QueryBlockContent(uid))
	if err != nil {
		return "", err
	}
	content, ok := roamapi.ScalarString(raw)
	if !ok {
		return "", roamerr.Newf(roamerr.KindNotFound, "block-content", "no block with uid %s", uid)
	}
	return content, nil
}
