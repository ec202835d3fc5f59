// Package testutil provides shared test fakes: an in-memory Roam graph
// implementing the roamapi.API surface, with call recording and failure
// injection.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/roamapi"
)

var (
	pageUIDQueryRe     = regexp.MustCompile(`\[\?e :node/title "(.*)"\] \[\?e :block/uid \?uid\]`)
	lastChildQueryRe   = regexp.MustCompile(`\[\?p :block/uid "(.*?)"\] \[\?p :block/children`)
	blockByContentRe   = regexp.MustCompile(`\[\?e :block/string "(.*)"\] \[\?e :block/page \?p\] \[\?p :block/uid "(.*?)"\]`)
	blockContentRe     = regexp.MustCompile(`\[\?b :block/uid "(.*?)"\] \[\?b :block/string \?string\]`)
	titleIncludesRe    = regexp.MustCompile(`clojure\.string/includes\? \?title "(.*)"`)
	pageReferencesRe   = regexp.MustCompile(`\[\?e :node/title "(.*)"\] \[\?ref :block/refs`)
	pullBlockUIDRefRe  = regexp.MustCompile(`\[:block/uid "(.*)"\]`)
)

type fakeBlock struct {
	uid      string
	content  string
	page     string
	children []string
	created  int
}

// FakeGraph is an in-memory stand-in for a Roam graph. It answers the
// exact query shapes the module generates and applies typed write
// actions to an internal block store. Not safe for concurrent use, which
// matches the module's single-writer model.
type FakeGraph struct {
	GraphName string

	// Calls records every API invocation in order.
	Calls []string

	// WriteErr, when non-nil, is returned from the next WriteFailures
	// calls to Write before any state change.
	WriteErr      error
	WriteFailures int

	// QueryErr behaves like WriteErr for Query.
	QueryErr      error
	QueryFailures int

	// References maps a page title to referencing page titles.
	References map[string][]string

	pages  map[string]string // title → root uid
	titles map[string]string // root uid → title
	blocks map[string]*fakeBlock
	seq    int
}

// NewFakeGraph creates an empty fake graph.
func NewFakeGraph() *FakeGraph {
	return &FakeGraph{
		GraphName:  "testgraph",
		References: map[string][]string{},
		pages:      map[string]string{},
		titles:     map[string]string{},
		blocks:     map[string]*fakeBlock{},
	}
}

// Graph implements roamapi.API.
func (f *FakeGraph) Graph() string { return f.GraphName }

var _ roamapi.API = (*FakeGraph)(nil)

func (f *FakeGraph) nextUID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%0*d", prefix, 9-len(prefix), f.seq)
}

// EnsurePage creates a page if absent and returns its root UID.
func (f *FakeGraph) EnsurePage(title string) string {
	if uid, ok := f.pages[title]; ok {
		return uid
	}
	uid := f.nextUID("pg")
	f.pages[title] = uid
	f.titles[uid] = title
	f.blocks[uid] = &fakeBlock{uid: uid, page: uid}
	return uid
}

// PageUID returns a page's root UID or "".
func (f *FakeGraph) PageUID(title string) string { return f.pages[title] }

// Block returns the content of a block by UID, for assertions.
func (f *FakeGraph) Block(uid string) (string, bool) {
	b, ok := f.blocks[uid]
	if !ok {
		return "", false
	}
	return b.content, true
}

// ChildContents returns the ordered contents of a block's children.
func (f *FakeGraph) ChildContents(uid string) []string {
	b, ok := f.blocks[uid]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(b.children))
	for _, c := range b.children {
		out = append(out, f.blocks[c].content)
	}
	return out
}

// Write implements roamapi.API.
func (f *FakeGraph) Write(_ context.Context, req roamapi.WriteRequest) error {
	f.Calls = append(f.Calls, "write/"+req.Action())
	if err := req.Validate(); err != nil {
		return err
	}
	if f.WriteFailures > 0 {
		f.WriteFailures--
		return f.WriteErr
	}

	switch r := req.(type) {
	case roamapi.CreateBlockRequest:
		parentUID := r.Location.ParentUID
		if parentUID == "" {
			parentUID = f.EnsurePage(r.Location.PageTitle)
		}
		parent, ok := f.blocks[parentUID]
		if !ok {
			return fmt.Errorf("fakegraph: unknown parent %s", parentUID)
		}
		uid := f.nextUID("blk")
		f.blocks[uid] = &fakeBlock{uid: uid, content: r.Block.String, page: parent.page, created: f.seq}
		if r.Location.Order == roamapi.OrderFirst || r.Location.Order == 0 {
			parent.children = append([]string{uid}, parent.children...)
		} else {
			parent.children = append(parent.children, uid)
		}
	case roamapi.CreatePageRequest:
		f.EnsurePage(r.Page.Title)
	case roamapi.UpdateBlockRequest:
		b, ok := f.blocks[r.Block.UID]
		if !ok {
			return fmt.Errorf("fakegraph: unknown block %s", r.Block.UID)
		}
		b.content = r.Block.String
	case roamapi.DeleteBlockRequest:
		delete(f.blocks, r.Block.UID)
	}
	return nil
}

// Query implements roamapi.API by matching the module's query shapes.
func (f *FakeGraph) Query(_ context.Context, query string, _ ...any) (json.RawMessage, error) {
	if f.QueryFailures > 0 {
		f.QueryFailures--
		f.Calls = append(f.Calls, "q/error")
		return nil, f.QueryErr
	}

	if strings.Contains(query, "not-join") {
		m := lastChildQueryRe.FindStringSubmatch(query)
		if m == nil {
			return nil, fmt.Errorf("fakegraph: unparseable last-child query: %s", query)
		}
		f.Calls = append(f.Calls, "q/last-child parent="+m[1])
		return f.lastCreatedChild(m[1])
	}
	if m := blockByContentRe.FindStringSubmatch(query); m != nil {
		f.Calls = append(f.Calls, fmt.Sprintf("q/block-by-content page=%s content=%q", m[2], m[1]))
		return f.blockByContent(m[2], m[1])
	}
	if m := blockContentRe.FindStringSubmatch(query); m != nil {
		f.Calls = append(f.Calls, "q/block-content uid="+m[1])
		if b, ok := f.blocks[m[1]]; ok {
			return marshal(b.content), nil
		}
		return nil, nil
	}
	if m := titleIncludesRe.FindStringSubmatch(query); m != nil {
		f.Calls = append(f.Calls, fmt.Sprintf("q/search %q", m[1]))
		var titles []string
		for t := range f.pages {
			if strings.Contains(t, m[1]) {
				titles = append(titles, t)
			}
		}
		return marshal(titles), nil
	}
	if m := pageReferencesRe.FindStringSubmatch(query); m != nil {
		f.Calls = append(f.Calls, "q/references "+m[1])
		return marshal(f.References[m[1]]), nil
	}
	if m := pageUIDQueryRe.FindStringSubmatch(query); m != nil {
		f.Calls = append(f.Calls, "q/page-uid title="+m[1])
		if uid, ok := f.pages[m[1]]; ok {
			return marshal(uid), nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("fakegraph: unrecognised query: %s", query)
}

// Pull implements roamapi.API for page-tree pulls by block UID ref.
func (f *FakeGraph) Pull(_ context.Context, _ string, eid string) (json.RawMessage, error) {
	m := pullBlockUIDRefRe.FindStringSubmatch(eid)
	if m == nil {
		return nil, fmt.Errorf("fakegraph: unsupported eid: %s", eid)
	}
	f.Calls = append(f.Calls, "pull uid="+m[1])
	b, ok := f.blocks[m[1]]
	if !ok {
		return nil, nil
	}
	return marshal(f.treeJSON(b)), nil
}

// PullMany implements roamapi.API.
func (f *FakeGraph) PullMany(ctx context.Context, selector string, eids []string) (json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(eids))
	for _, eid := range eids {
		one, err := f.Pull(ctx, selector, eid)
		if err != nil {
			return nil, err
		}
		out = append(out, one)
	}
	return marshal(out), nil
}

func (f *FakeGraph) lastCreatedChild(parentUID string) (json.RawMessage, error) {
	parent, ok := f.blocks[parentUID]
	if !ok || len(parent.children) == 0 {
		return nil, nil
	}
	newest := parent.children[0]
	for _, c := range parent.children[1:] {
		if f.blocks[c].created > f.blocks[newest].created {
			newest = c
		}
	}
	return marshal(newest), nil
}

func (f *FakeGraph) blockByContent(pageUID, content string) (json.RawMessage, error) {
	for _, b := range f.blocks {
		if b.page == pageUID && b.uid != pageUID && b.content == content {
			return marshal(b.uid), nil
		}
	}
	return nil, nil
}

// treeJSON renders a block and its subtree with Roam's keyword keys.
func (f *FakeGraph) treeJSON(b *fakeBlock) map[string]any {
	node := map[string]any{
		":block/uid": b.uid,
	}
	if title, ok := f.titles[b.uid]; ok {
		node[":node/title"] = title
	} else {
		node[":block/string"] = b.content
	}
	if len(b.children) > 0 {
		children := make([]map[string]any, 0, len(b.children))
		for i, c := range b.children {
			child := f.treeJSON(f.blocks[c])
			child[":block/order"] = i
			children = append(children, child)
		}
		node[":block/children"] = children
	}
	return node
}

func marshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
