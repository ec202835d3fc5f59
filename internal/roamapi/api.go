package roamapi

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/starford/ansuz/internal/roamerr"
)

// API is the operation surface the rest of the module depends on.
// *Client implements it against the real backend; tests substitute fakes.
type API interface {
	Query(ctx context.Context, query string, args ...any) (json.RawMessage, error)
	Pull(ctx context.Context, selector, eid string) (json.RawMessage, error)
	PullMany(ctx context.Context, selector string, eids []string) (json.RawMessage, error)
	Write(ctx context.Context, req WriteRequest) error
	Graph() string
}

var _ API = (*Client)(nil)

type queryBody struct {
	Query string `json:"query"`
	Args  []any  `json:"args,omitempty"`
}

type pullBody struct {
	EID      string `json:"eid"`
	Selector string `json:"selector"`
}

type pullManyBody struct {
	EIDs     []string `json:"eids"`
	Selector string   `json:"selector"`
}

type resultEnvelope struct {
	Result json.RawMessage `json:"result"`
}

// Query runs a datalog query and returns the raw result. A missing or
// null result is returned as nil with no error: lookups used as existence
// checks treat empty as "not there yet".
func (c *Client) Query(ctx context.Context, query string, args ...any) (json.RawMessage, error) {
	if query == "" {
		return nil, roamerr.Newf(roamerr.KindValidation, "q", "query must not be empty")
	}
	data, err := c.call(ctx, "q", queryBody{Query: query, Args: args})
	if err != nil {
		return nil, err
	}
	return unwrapResult("q", data)
}

// Pull fetches one entity by lookup ref with an EDN selector pattern.
func (c *Client) Pull(ctx context.Context, selector, eid string) (json.RawMessage, error) {
	if selector == "" || eid == "" {
		return nil, roamerr.Newf(roamerr.KindValidation, "pull", "selector and eid are required")
	}
	data, err := c.call(ctx, "pull", pullBody{EID: eid, Selector: selector})
	if err != nil {
		return nil, err
	}
	return unwrapResult("pull", data)
}

// PullMany fetches multiple entities by lookup refs.
func (c *Client) PullMany(ctx context.Context, selector string, eids []string) (json.RawMessage, error) {
	if selector == "" || len(eids) == 0 {
		return nil, roamerr.Newf(roamerr.KindValidation, "pull-many", "selector and eids are required")
	}
	data, err := c.call(ctx, "pull-many", pullManyBody{EIDs: eids, Selector: selector})
	if err != nil {
		return nil, err
	}
	return unwrapResult("pull-many", data)
}

// Write submits a mutating action. The request is validated locally
// before any network traffic.
func (c *Client) Write(ctx context.Context, req WriteRequest) error {
	op := "write/" + req.Action()
	if err := req.Validate(); err != nil {
		return roamerr.New(roamerr.KindValidation, op, err)
	}
	_, err := c.call(ctx, "write", req)
	if err != nil {
		var e *roamerr.Error
		if errors.As(err, &e) {
			e.Op = op
		}
		return err
	}
	return nil
}

func unwrapResult(op string, data []byte) (json.RawMessage, error) {
	var env resultEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, roamerr.New(roamerr.KindUnknown, op, err)
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil, nil
	}
	return env.Result, nil
}
