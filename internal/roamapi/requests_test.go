package roamapi

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestWriteRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     WriteRequest
		wantErr bool
	}{
		{"create block ok", NewCreateBlock("parent123", "hello", OrderLast), false},
		{"create block index order", NewCreateBlock("parent123", "hello", 0), false},
		{"create block no parent", NewCreateBlock("", "hello", OrderLast), true},
		{"create block no content", NewCreateBlock("parent123", "", OrderLast), true},
		{"create block bad order", NewCreateBlock("parent123", "hello", "middle"), true},
		{"create block negative order", NewCreateBlock("parent123", "hello", -1), true},
		{"move ok", NewMoveBlock("blk123", "parent123", OrderFirst), false},
		{"move no uid", NewMoveBlock("", "parent123", OrderFirst), true},
		{"update ok", NewUpdateBlock("blk123", "new text"), false},
		{"update no uid", NewUpdateBlock("", "new text"), true},
		{"delete block ok", NewDeleteBlock("blk123"), false},
		{"delete block no uid", NewDeleteBlock(""), true},
		{"create page ok", NewCreatePage("My Page"), false},
		{"create page no title", NewCreatePage(""), true},
		{"update page ok", NewUpdatePage("pg123", "Renamed"), false},
		{"delete page ok", NewDeletePage("pg123"), false},
		{"delete page no uid", NewDeletePage(""), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLocationExactlyOne(t *testing.T) {
	both := Location{ParentUID: "a", PageTitle: "b", Order: OrderLast}
	if both.Validate() == nil {
		t.Error("both parent-uid and page-title accepted")
	}
	neither := Location{Order: OrderLast}
	if neither.Validate() == nil {
		t.Error("empty location accepted")
	}
	byTitle := Location{PageTitle: "Inbox", Order: 0}
	if err := byTitle.Validate(); err != nil {
		t.Errorf("page-title location rejected: %v", err)
	}
}

func TestBlockHeadingRange(t *testing.T) {
	if (Block{String: "x", Heading: 7}).Validate() == nil {
		t.Error("heading 7 accepted")
	}
	if err := (Block{String: "x", Heading: 3}).Validate(); err != nil {
		t.Errorf("heading 3 rejected: %v", err)
	}
}

func TestCreateBlockWireFormat(t *testing.T) {
	data, err := json.Marshal(NewCreateBlock("parent123", "hello", OrderLast))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`"action":"create-block"`,
		`"parent-uid":"parent123"`,
		`"order":"last"`,
		`"string":"hello"`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("payload %s missing %s", data, want)
		}
	}
	if strings.Contains(string(data), "page-title") {
		t.Errorf("payload %s carries empty page-title", data)
	}
}

func TestQueryEscaping(t *testing.T) {
	q := QueryPageUID(`He said "hi" \now`)
	if !strings.Contains(q, `\"hi\"`) || !strings.Contains(q, `\\now`) {
		t.Errorf("quotes or backslashes not escaped: %s", q)
	}
}
