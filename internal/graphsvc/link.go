package graphsvc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/roamapi"
	"github.com/starford/ansuz/internal/roamerr"
)

// Anchor block contents and link types for record linking.
const (
	LogAnchor = "[[Log/DEVONthink]]"
	RefAnchor = "References::"

	LinkTypeLog = "log"
	LinkTypeRef = "ref"
)

// LinkRequest describes an external (DEVONthink) record to link into the
// graph: a log entry on today's daily note plus a reference on the topic
// page.
type LinkRequest struct {
	PageTitle    string // topic page to link the record to
	RecordName   string // display name of the external record
	RecordLink   string // x-devonthink-item:// (or similar) URL
	DatabaseName string // optional database display name
	DatabaseLink string // optional database URL
	LinkType     string // "log" or "ref"; selects the topic-page anchor
	Comment      string // optional comment appended to the link block
	SubComment   string // optional comment nested under the link block
}

// Validate checks required fields.
func (r LinkRequest) Validate() error {
	if r.PageTitle == "" {
		return roamerr.Newf(roamerr.KindValidation, "link", "page title is required")
	}
	if r.RecordName == "" || r.RecordLink == "" {
		return roamerr.Newf(roamerr.KindValidation, "link", "record name and link are required")
	}
	if r.LinkType != "" && r.LinkType != LinkTypeLog && r.LinkType != LinkTypeRef {
		return roamerr.Newf(roamerr.KindValidation, "link", "link type must be %q or %q", LinkTypeLog, LinkTypeRef)
	}
	return nil
}

// LinkResult reports where the link landed.
type LinkResult struct {
	PageUID string `json:"page_uid"`
	RoamURL string `json:"roam_url"`
}

// LinkRecord writes the record link onto today's daily note under the
// DEVONthink log anchor, and onto the topic page under its log or
// references anchor. A missing topic page is logged and skipped, not an
// error: the daily-note log entry still lands.
func (s *Service) LinkRecord(ctx context.Context, req LinkRequest) (*LinkResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	dailyUID, err := s.DailyNoteUID(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("daily note: %w", err)
	}
	logUID, err := s.AnchorBlock(ctx, dailyUID, LogAnchor)
	if err != nil {
		return nil, fmt.Errorf("daily log anchor: %w", err)
	}

	dailyContent := fmt.Sprintf("[%s](%s) ⨠ [[%s]]", req.RecordName, req.RecordLink, req.PageTitle)
	if req.DatabaseName != "" && req.DatabaseLink != "" {
		dailyContent = fmt.Sprintf("[[%s](%s)]—%s", req.DatabaseName, req.DatabaseLink, dailyContent)
	}
	if err := s.api.Write(ctx, roamapi.NewCreateBlock(logUID, dailyContent, 0)); err != nil {
		return nil, fmt.Errorf("daily log entry: %w", err)
	}

	pageUID, err := s.PageUID(ctx, req.PageTitle)
	if err != nil {
		return nil, err
	}
	if pageUID == "" {
		s.logger.Warn("topic page not found, skipping page link",
			slog.String("page", req.PageTitle))
	} else if err := s.linkOnPage(ctx, pageUID, req); err != nil {
		return nil, err
	}

	return &LinkResult{
		PageUID: pageUID,
		RoamURL: fmt.Sprintf("https://roamresearch.com/#/app/%s/page/%s", s.api.Graph(), pageUID),
	}, nil
}

// linkOnPage writes the record link under the topic page's anchor.
func (s *Service) linkOnPage(ctx context.Context, pageUID string, req LinkRequest) error {
	anchor := LogAnchor
	if req.LinkType == LinkTypeRef {
		anchor = RefAnchor
	}
	anchorUID, err := s.AnchorBlock(ctx, pageUID, anchor)
	if err != nil {
		return fmt.Errorf("page anchor: %w", err)
	}

	content := fmt.Sprintf("[%s](%s)", req.RecordName, req.RecordLink)
	if req.DatabaseName != "" && req.DatabaseLink != "" {
		content = fmt.Sprintf("[[%s](%s)]—%s", req.DatabaseName, req.DatabaseLink, content)
	}
	if req.Comment != "" {
		content = parser.ProcessBlockText(content + " " + req.Comment)
	}
	if err := s.api.Write(ctx, roamapi.NewCreateBlock(anchorUID, content, 0)); err != nil {
		return fmt.Errorf("page link entry: %w", err)
	}

	if strings.TrimSpace(req.SubComment) == "" {
		return nil
	}

	// Nesting the sub-comment needs the new block's UID; it is looked up
	// by content, which may collide with an identical earlier entry.
	raw, err := s.api.Query(ctx, roamapi.QueryBlockUIDByContent(pageUID, content))
	if err != nil {
		return err
	}
	blockUID, ok := roamapi.ScalarString(raw)
	if !ok {
		return roamerr.Newf(roamerr.KindNotFound, "link", "link block not queryable after create")
	}
	sub := parser.ProcessBlockText(req.SubComment)
	if err := s.api.Write(ctx, roamapi.NewCreateBlock(blockUID, sub, 0)); err != nil {
		return fmt.Errorf("sub-comment: %w", err)
	}
	return nil
}
