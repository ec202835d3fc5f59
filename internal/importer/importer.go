// Package importer uploads parsed block trees to a Roam graph. The
// upload is a strict pre-order traversal with one outstanding call at a
// time: each block is created, its UID resolved by querying the parent's
// newest child, and its subtree fully materialised before the next
// sibling starts. Pacing delays between writes keep the backend's
// undocumented rate limit at bay; removing them reliably draws HTTP 503
// under burst load.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/roamapi"
	"github.com/starford/ansuz/internal/roamerr"
)

// Config controls upload behaviour.
type Config struct {
	// Pacing is the delay inserted between consecutive writes.
	Pacing time.Duration `yaml:"pacing"`
	// ContinueOnError keeps processing later top-level siblings after a
	// subtree fails. A failed subtree is never resumed midway.
	ContinueOnError bool        `yaml:"continue_on_error"`
	Retry           RetryConfig `yaml:"retry"`
}

// DefaultConfig returns the pacing and retry defaults.
func DefaultConfig() Config {
	return Config{
		Pacing:          500 * time.Millisecond,
		ContinueOnError: true,
		Retry:           DefaultRetryConfig(),
	}
}

// NodeResult is the outcome for one top-level node. Error carries the
// failure message for serialized reports; Err keeps the wrapped chain
// for callers branching on error kind.
type NodeResult struct {
	Content string `json:"content"`
	UID     string `json:"uid,omitempty"`
	Error   string `json:"error,omitempty"`
	Err     error  `json:"-"`
}

// Report summarises an upload run. Created counts every block written,
// including nested ones; Failed counts failed top-level subtrees.
type Report struct {
	Results []NodeResult `json:"results"`
	Created int          `json:"created"`
	Failed  int          `json:"failed"`
}

// Err returns the first top-level failure, or nil.
func (r *Report) Err() error {
	for _, res := range r.Results {
		if res.Err != nil {
			return res.Err
		}
	}
	return nil
}

// Uploader writes block trees through a roamapi.API.
type Uploader struct {
	api    roamapi.API
	cfg    Config
	logger *slog.Logger
	sleep  sleepFunc
}

// New creates an Uploader. logger may be nil.
func New(api roamapi.API, cfg Config, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{api: api, cfg: cfg, logger: logger, sleep: sleepCtx}
}

// Upload creates a remote block for every node, anchored under
// parentUID, preserving source order. Re-running the same upload creates
// duplicate blocks: there is no content-based deduplication.
func (u *Uploader) Upload(ctx context.Context, parentUID string, nodes []*parser.BlockNode) (*Report, error) {
	if parentUID == "" {
		return nil, roamerr.Newf(roamerr.KindValidation, "upload", "parent uid is required")
	}

	report := &Report{}
	for i, node := range nodes {
		content := strings.TrimSpace(node.Content)
		if content == "" {
			continue
		}
		if i > 0 {
			if err := u.sleep(ctx, u.cfg.Pacing); err != nil {
				return report, err
			}
		}

		uid, err := u.uploadNode(ctx, parentUID, node, report)
		res := NodeResult{Content: content, UID: uid, Err: err}
		if err != nil {
			res.Error = err.Error()
		}
		report.Results = append(report.Results, res)
		if err != nil {
			report.Failed++
			u.logger.Warn("block subtree failed",
				slog.String("content", truncate(content, 50)),
				slog.String("error", err.Error()))
			if !u.cfg.ContinueOnError {
				return report, err
			}
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
		}
	}
	return report, nil
}

// uploadNode creates one block and recursively materialises its subtree.
// Returns the resolved UID of the created block.
func (u *Uploader) uploadNode(ctx context.Context, parentUID string, node *parser.BlockNode, report *Report) (string, error) {
	content := parser.ProcessBlockText(strings.TrimSpace(node.Content))
	if content == "" {
		return "", nil
	}

	req := roamapi.NewCreateBlock(parentUID, content, roamapi.OrderLast)
	if node.Properties.Heading > 0 {
		req.Block.Heading = node.Properties.Heading
	}

	err := withRetry(ctx, u.cfg.Retry, u.sleep, "write/create-block", func(ctx context.Context) error {
		return u.api.Write(ctx, req)
	})
	if err != nil {
		return "", err
	}
	report.Created++

	uid, err := u.resolveNewChild(ctx, parentUID)
	if err != nil {
		return "", fmt.Errorf("resolve uid of created block: %w", err)
	}

	for _, child := range node.Children {
		if strings.TrimSpace(child.Content) == "" {
			continue
		}
		if err := u.sleep(ctx, u.cfg.Pacing); err != nil {
			return uid, err
		}
		if _, err := u.uploadNode(ctx, uid, child, report); err != nil {
			return uid, err
		}
	}
	return uid, nil
}

// resolveNewChild fetches the UID of the newest child of parentUID. The
// write endpoint does not echo the new block's UID, so creation order is
// the only handle — the reason uploads are strictly sequential.
func (u *Uploader) resolveNewChild(ctx context.Context, parentUID string) (string, error) {
	var uid string
	err := withRetry(ctx, u.cfg.Retry, u.sleep, "q/last-created-child", func(ctx context.Context) error {
		raw, err := u.api.Query(ctx, roamapi.QueryLastCreatedChild(parentUID))
		if err != nil {
			return err
		}
		s, ok := roamapi.ScalarString(raw)
		if !ok {
			return roamerr.Newf(roamerr.KindNotFound, "q/last-created-child",
				"no child found under %s after create", parentUID)
		}
		uid = s
		return nil
	})
	return uid, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
