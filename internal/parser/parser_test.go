package parser

import (
	"reflect"
	"testing"
)

func TestParse_HeadingAbsorbsFollowingLines(t *testing.T) {
	input := "# Groceries\n1. Milk\n- Bread\n"
	roots := Parse(input)
	if len(roots) != 1 {
		t.Fatalf("len(roots) = %d, want 1", len(roots))
	}
	h := roots[0]
	if h.Content != "Groceries" || h.Properties.Heading != 1 {
		t.Errorf("root = %q %+v, want heading 1 %q", h.Content, h.Properties, "Groceries")
	}
	if len(h.Children) != 2 {
		t.Fatalf("len(children) = %d, want 2", len(h.Children))
	}
	if h.Children[0].Content != "Milk" || !h.Children[0].Properties.Numbered {
		t.Errorf("child 0 = %q %+v, want numbered Milk", h.Children[0].Content, h.Children[0].Properties)
	}
	if h.Children[1].Content != "Bread" || !h.Children[1].Properties.Bullet {
		t.Errorf("child 1 = %q %+v, want bullet Bread", h.Children[1].Content, h.Children[1].Properties)
	}
}

func TestParse_Deterministic(t *testing.T) {
	input := "# A\n- one\n\t- nested\n2. two\nplain\n## B\ntext\n"
	first := Parse(input)
	second := Parse(input)
	if !reflect.DeepEqual(first, second) {
		t.Error("two parses of identical input differ")
	}
}

func TestParse_BlankLinesVanish(t *testing.T) {
	without := Parse("- a\n\t- b\n- c\n")
	with := Parse("\n- a\n\n\n\t- b\n\n- c\n\n")
	if !reflect.DeepEqual(without, with) {
		t.Errorf("blank lines changed the tree:\nwithout: %+v\nwith: %+v", without, with)
	}
}

func TestParse_NestingByIndent(t *testing.T) {
	roots := Parse("- parent\n\t- child\n\t\t- grandchild\n- sibling\n")
	if len(roots) != 2 {
		t.Fatalf("len(roots) = %d, want 2", len(roots))
	}
	p := roots[0]
	if p.Content != "parent" || len(p.Children) != 1 {
		t.Fatalf("parent = %q with %d children", p.Content, len(p.Children))
	}
	c := p.Children[0]
	if c.Content != "child" || len(c.Children) != 1 || c.Children[0].Content != "grandchild" {
		t.Errorf("child subtree wrong: %+v", c)
	}
	if roots[1].Content != "sibling" {
		t.Errorf("roots[1] = %q, want sibling", roots[1].Content)
	}
}

func TestParse_SpacesCountAsIndentUnits(t *testing.T) {
	roots := Parse("- a\n  - b\n")
	if len(roots) != 1 || len(roots[0].Children) != 1 {
		t.Fatalf("two-space indent should nest: %+v", roots)
	}
	if roots[0].Children[0].Content != "b" {
		t.Errorf("nested content = %q", roots[0].Children[0].Content)
	}
}

func TestParse_HeadingClosesSection(t *testing.T) {
	roots := Parse("# One\ntext under one\n# Two\ntext under two\n")
	if len(roots) != 2 {
		t.Fatalf("len(roots) = %d, want 2", len(roots))
	}
	for i, want := range []string{"One", "Two"} {
		if roots[i].Content != want || len(roots[i].Children) != 1 {
			t.Errorf("roots[%d] = %q with %d children", i, roots[i].Content, len(roots[i].Children))
		}
	}
}

func TestParse_SubheadingNestsUnderHeading(t *testing.T) {
	roots := Parse("# Top\n## Sub\nleaf\n# Next\n")
	if len(roots) != 2 {
		t.Fatalf("len(roots) = %d, want 2", len(roots))
	}
	topNode := roots[0]
	if len(topNode.Children) != 1 || topNode.Children[0].Content != "Sub" {
		t.Fatalf("Top children = %+v", topNode.Children)
	}
	sub := topNode.Children[0]
	if sub.Properties.Heading != 2 || len(sub.Children) != 1 || sub.Children[0].Content != "leaf" {
		t.Errorf("Sub subtree wrong: %+v", sub)
	}
}

func TestParse_HeadingLevelClamped(t *testing.T) {
	roots := Parse("########## Deep\n")
	if len(roots) != 1 {
		t.Fatalf("len(roots) = %d, want 1", len(roots))
	}
	if roots[0].Properties.Heading != 6 || roots[0].Content != "Deep" {
		t.Errorf("got %+v, want heading 6 %q", roots[0], "Deep")
	}
}

func TestParse_MarkerWithoutContentDropped(t *testing.T) {
	roots := Parse("- \n1. \n#  \n- real\n")
	if len(roots) != 1 || roots[0].Content != "real" {
		t.Errorf("empty-content markers should drop, got %+v", roots)
	}
}

func TestParse_HashWithoutSpaceIsPlain(t *testing.T) {
	roots := Parse("#tag not a heading\n")
	if len(roots) != 1 {
		t.Fatalf("len(roots) = %d, want 1", len(roots))
	}
	if roots[0].Properties.Heading != 0 || roots[0].Content != "#tag not a heading" {
		t.Errorf("got %+v, want plain block", roots[0])
	}
}

func TestParse_NumberedMarkerStripped(t *testing.T) {
	roots := Parse("12.   Buy milk\n")
	if len(roots) != 1 || roots[0].Content != "Buy milk" || !roots[0].Properties.Numbered {
		t.Errorf("got %+v", roots[0])
	}
}

func TestParse_EmptyInput(t *testing.T) {
	if roots := Parse(""); len(roots) != 0 {
		t.Errorf("Parse(\"\") = %+v, want empty", roots)
	}
	if roots := Parse("\n\n  \n\t\n"); len(roots) != 0 {
		t.Errorf("whitespace-only input should yield no blocks, got %+v", roots)
	}
}
