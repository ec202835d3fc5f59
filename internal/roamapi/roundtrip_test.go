package roamapi_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/starford/ansuz/internal/roamapi"
	"github.com/starford/ansuz/internal/roamerr"
	"github.com/starford/ansuz/internal/testutil"
)

// The fake backend serves the same REST surface as the real one, so the
// client can be exercised end to end over HTTP.
func TestClientRoundTrip(t *testing.T) {
	fake := testutil.NewFakeGraph()
	srv := httptest.NewServer(testutil.NewServer(fake, "tok"))
	defer srv.Close()

	c := roamapi.NewClient("testgraph", "tok", srv.URL, nil)
	ctx := context.Background()

	if err := c.Write(ctx, roamapi.NewCreatePage("Inbox")); err != nil {
		t.Fatalf("create page: %v", err)
	}

	raw, err := c.Query(ctx, roamapi.QueryPageUID("Inbox"))
	if err != nil {
		t.Fatalf("query page uid: %v", err)
	}
	pageUID, ok := roamapi.ScalarString(raw)
	if !ok {
		t.Fatal("page uid not found after create")
	}

	if err := c.Write(ctx, roamapi.NewCreateBlock(pageUID, "hello", roamapi.OrderLast)); err != nil {
		t.Fatalf("create block: %v", err)
	}

	raw, err = c.Query(ctx, roamapi.QueryLastCreatedChild(pageUID))
	if err != nil {
		t.Fatalf("query last child: %v", err)
	}
	blockUID, ok := roamapi.ScalarString(raw)
	if !ok {
		t.Fatal("child uid not found after create")
	}

	raw, err = c.Pull(ctx, roamapi.SelectorPageTree, roamapi.BlockUIDRef(pageUID))
	if err != nil {
		t.Fatalf("pull page tree: %v", err)
	}
	var tree struct {
		Title    string `json:":node/title"`
		Children []struct {
			UID    string `json:":block/uid"`
			String string `json:":block/string"`
		} `json:":block/children"`
	}
	if err := json.Unmarshal(raw, &tree); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	if tree.Title != "Inbox" || len(tree.Children) != 1 || tree.Children[0].UID != blockUID {
		t.Errorf("tree = %+v", tree)
	}
}

func TestClientRoundTripAuth(t *testing.T) {
	fake := testutil.NewFakeGraph()
	srv := httptest.NewServer(testutil.NewServer(fake, "tok"))
	defer srv.Close()

	c := roamapi.NewClient("testgraph", "wrong", srv.URL, nil)
	_, err := c.Query(context.Background(), roamapi.QueryPageUID("Inbox"))
	if roamerr.KindOf(err) != roamerr.KindAuth {
		t.Fatalf("err = %v, want auth kind", err)
	}
}

func TestClientRoundTripUnknownGraph(t *testing.T) {
	fake := testutil.NewFakeGraph()
	srv := httptest.NewServer(testutil.NewServer(fake, "tok"))
	defer srv.Close()

	c := roamapi.NewClient("othergraph", "tok", srv.URL, nil)
	_, err := c.Query(context.Background(), roamapi.QueryPageUID("Inbox"))
	if !roamerr.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestClientRoundTripTransient(t *testing.T) {
	fake := testutil.NewFakeGraph()
	fake.WriteErr = roamerr.Newf(roamerr.KindTransient, "write", "graph loading")
	fake.WriteFailures = 1
	srv := httptest.NewServer(testutil.NewServer(fake, "tok"))
	defer srv.Close()

	c := roamapi.NewClient("testgraph", "tok", srv.URL, nil)
	err := c.Write(context.Background(), roamapi.NewCreatePage("Inbox"))
	if !roamerr.IsTransient(err) {
		t.Fatalf("err = %v, want transient", err)
	}

	// The failure budget is spent; the same write now lands.
	if err := c.Write(context.Background(), roamapi.NewCreatePage("Inbox")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if fake.PageUID("Inbox") == "" {
		t.Error("page missing after successful write")
	}
}
