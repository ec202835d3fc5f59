package graphsvc

import (
	"context"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/roamerr"
)

func TestResolvePageAlias(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		in, want string
	}{
		{"today", "July 6th, 2024"},
		{"yesterday", "July 5th, 2024"},
		{"lastweek", "June 29th, 2024"},
		{"2024-03-11", "March 11th, 2024"},
		{"Reading List", "Reading List"},
	}
	for _, tt := range tests {
		if got := svc.ResolvePageAlias(tt.in); got != tt.want {
			t.Errorf("ResolvePageAlias(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetPageMarkdown(t *testing.T) {
	svc, fake := newTestService(t)
	fake.EnsurePage("Trip")
	if _, err := svc.AddBlocks(context.Background(), "Trip", "", `pack\nbook flights`); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddBlocks(context.Background(), "Trip", "pack", "passport"); err != nil {
		t.Fatal(err)
	}

	out, err := svc.GetPage(context.Background(), "Trip", FormatMarkdown, "")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	want := "# Trip\n- pack\n\t- passport\n- book flights\n"
	if out != want {
		t.Errorf("markdown = %q, want %q", out, want)
	}
}

func TestGetPageMarkdownPrefix(t *testing.T) {
	svc, fake := newTestService(t)
	fake.EnsurePage("Trip")
	if _, err := svc.AddBlocks(context.Background(), "Trip", "", "pack"); err != nil {
		t.Fatal(err)
	}

	out, err := svc.GetPage(context.Background(), "Trip", FormatMarkdown, ">")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	want := "> # Trip\n> - pack\n"
	if out != want {
		t.Errorf("markdown = %q, want %q", out, want)
	}
}

func TestGetPageJSON(t *testing.T) {
	svc, fake := newTestService(t)
	fake.EnsurePage("Trip")
	if _, err := svc.AddBlocks(context.Background(), "Trip", "", "pack"); err != nil {
		t.Fatal(err)
	}

	out, err := svc.GetPage(context.Background(), "Trip", FormatJSON, "")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if !strings.Contains(out, `"Trip"`) || !strings.Contains(out, `"pack"`) {
		t.Errorf("json output missing content: %s", out)
	}
}

func TestGetPageAlias(t *testing.T) {
	svc, fake := newTestService(t)
	fake.EnsurePage("July 6th, 2024")
	if _, err := svc.AddBlocks(context.Background(), "", "", "morning note"); err != nil {
		t.Fatal(err)
	}

	out, err := svc.GetPage(context.Background(), "today", FormatMarkdown, "")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if !strings.HasPrefix(out, "# July 6th, 2024\n") {
		t.Errorf("output = %q", out)
	}
}

func TestGetPageMissing(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetPage(context.Background(), "No Such Page", FormatMarkdown, "")
	if !roamerr.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestGetPageBadFormat(t *testing.T) {
	svc, fake := newTestService(t)
	fake.EnsurePage("Trip")
	_, err := svc.GetPage(context.Background(), "Trip", "xml", "")
	if roamerr.KindOf(err) != roamerr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}
