package parser

import (
	"strings"
	"testing"
)

func TestSplitFrontmatter_TitleAndTags(t *testing.T) {
	input := []byte("---\ntitle: Reading Notes\ntags:\n  - books\n  - history\n---\n# Intro\ntext\n")
	fm, body := SplitFrontmatter(input)
	if fm == nil {
		t.Fatal("expected frontmatter")
	}
	if fm.Title != "Reading Notes" {
		t.Errorf("title = %q", fm.Title)
	}
	if len(fm.Tags) != 2 || fm.Tags[0] != "books" || fm.Tags[1] != "history" {
		t.Errorf("tags = %v", fm.Tags)
	}
	if !strings.HasPrefix(body, "# Intro") {
		t.Errorf("body = %q", body)
	}
}

func TestSplitFrontmatter_CommaTags(t *testing.T) {
	input := []byte("---\ntags: a, b ,c\n---\nbody\n")
	fm, _ := SplitFrontmatter(input)
	if fm == nil {
		t.Fatal("expected frontmatter")
	}
	if got := fm.TagLine(); got != "#a #b #c" {
		t.Errorf("TagLine = %q", got)
	}
}

func TestSplitFrontmatter_None(t *testing.T) {
	input := []byte("# Just markdown\ntext\n")
	fm, body := SplitFrontmatter(input)
	if fm != nil {
		t.Errorf("frontmatter = %+v, want nil", fm)
	}
	if body != string(input) {
		t.Errorf("body = %q", body)
	}
}

func TestSplitFrontmatter_InvalidYAMLFallsBack(t *testing.T) {
	input := []byte("---\n: broken: yaml: {{{\n---\nbody\n")
	fm, body := SplitFrontmatter(input)
	if fm != nil {
		t.Error("invalid YAML should fall back to nil frontmatter")
	}
	if body != string(input) {
		t.Errorf("body = %q, want full input", body)
	}
}

func TestTagLine_Empty(t *testing.T) {
	var fm *Frontmatter
	if fm.TagLine() != "" {
		t.Error("nil frontmatter should render empty tag line")
	}
}
