package graphsvc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/roamerr"
)

const markdownDoc = `---
title: Trip Notes
tags:
  - travel
  - planning
---
# Day 1
- Walk the old town
- Museum

Closing thought
`

func TestImportMarkdown(t *testing.T) {
	svc, fake := newTestService(t)

	res, err := svc.ImportMarkdown(context.Background(), []byte(markdownDoc), "ignored")
	if err != nil {
		t.Fatalf("ImportMarkdown: %v", err)
	}
	if res.PageTitle != "Trip Notes" {
		t.Errorf("title = %q, want frontmatter title", res.PageTitle)
	}
	if res.PageUID != fake.PageUID("Trip Notes") {
		t.Errorf("page uid = %q", res.PageUID)
	}
	if res.Report.Failed != 0 {
		t.Errorf("failed = %d", res.Report.Failed)
	}

	top := fake.ChildContents(res.PageUID)
	want := []string{"#travel #planning", "Day 1"}
	if len(top) != len(want) || top[0] != want[0] || top[1] != want[1] {
		t.Fatalf("top blocks = %v, want %v", top, want)
	}

	day1, _ := svc.AnchorBlock(context.Background(), res.PageUID, "Day 1")
	sub := fake.ChildContents(day1)
	if len(sub) != 3 || sub[0] != "Walk the old town" || sub[2] != "Closing thought" {
		t.Errorf("Day 1 children = %v", sub)
	}
}

func TestImportMarkdownFallbackTitle(t *testing.T) {
	svc, fake := newTestService(t)

	res, err := svc.ImportMarkdown(context.Background(), []byte("just a line"), "Scratch")
	if err != nil {
		t.Fatalf("ImportMarkdown: %v", err)
	}
	if res.PageTitle != "Scratch" || fake.PageUID("Scratch") == "" {
		t.Errorf("title = %q, page uid = %q", res.PageTitle, fake.PageUID("Scratch"))
	}
}

func TestImportMarkdownNoTitle(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ImportMarkdown(context.Background(), []byte("content"), "")
	if roamerr.KindOf(err) != roamerr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

const jsonDoc = `{
  "metadata": {"title": "Exported Page", "tags": ["a", "b"]},
  "page_blocks": [
    {"block_text": "parent", "block_children": [{"block_text": "child"}]},
    {"block_text": ""},
    {"block_text": "sibling"}
  ]
}`

func TestImportJSON(t *testing.T) {
	svc, fake := newTestService(t)

	res, err := svc.ImportJSON(context.Background(), []byte(jsonDoc), "ignored")
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if res.PageTitle != "Exported Page" {
		t.Errorf("title = %q", res.PageTitle)
	}
	top := fake.ChildContents(res.PageUID)
	want := []string{"#a #b", "parent", "sibling"}
	if len(top) != len(want) {
		t.Fatalf("top blocks = %v, want %v", top, want)
	}
	for i := range want {
		if top[i] != want[i] {
			t.Errorf("top[%d] = %q, want %q", i, top[i], want[i])
		}
	}
	parentUID, _ := svc.AnchorBlock(context.Background(), res.PageUID, "parent")
	if sub := fake.ChildContents(parentUID); len(sub) != 1 || sub[0] != "child" {
		t.Errorf("parent children = %v", sub)
	}
}

func TestImportJSONInvalid(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ImportJSON(context.Background(), []byte("{not json"), "x")
	if roamerr.KindOf(err) != roamerr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestImportFile(t *testing.T) {
	svc, fake := newTestService(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "Meeting Notes.md")
	if err := os.WriteFile(path, []byte("- agenda item"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := svc.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if res.PageTitle != "Meeting Notes" {
		t.Errorf("fallback title = %q, want filename sans extension", res.PageTitle)
	}
	if got := fake.ChildContents(res.PageUID); len(got) != 1 || got[0] != "agenda item" {
		t.Errorf("blocks = %v", got)
	}
}

func TestImportFileUnsupported(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.docx")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := svc.ImportFile(context.Background(), path)
	if roamerr.KindOf(err) != roamerr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}
