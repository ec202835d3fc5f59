// Package roamapi is a thin client for the Roam Research REST API: the
// graph-scoped /q, /pull, /pull-many, and /write endpoints, with bearer
// token auth and the peer-redirect handshake the backend uses to route a
// session to the host serving the graph.
package roamapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/starford/ansuz/internal/roamerr"
)

// DefaultBaseURL is the public API front door. The first request is
// usually answered with a redirect to a graph-specific peer host.
const DefaultBaseURL = "https://api.roamresearch.com"

// peerRe extracts the peer host and port from a redirect Location.
var peerRe = regexp.MustCompile(`https://(peer-\d+).*?:(\d+)`)

// maxRedirectHops bounds the redirect handshake; one hop is the normal
// case.
const maxRedirectHops = 3

// Client talks to one Roam graph. It is not safe for concurrent use: the
// peer URL cache is written on the first redirected call.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger

	graph   string
	token   string
	baseURL string
	peerURL string // set after the redirect handshake, reused for the session
}

// NewClient creates a client for the given graph. baseURL may be empty
// to use the public endpoint; logger may be nil.
func NewClient(graph, token, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			// Redirects carry the peer-routing handshake; handled manually.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:  logger,
		graph:   graph,
		token:   token,
		baseURL: baseURL,
	}
}

// Graph returns the graph name this client is bound to.
func (c *Client) Graph() string { return c.graph }

// call POSTs body to the graph-scoped endpoint ("q", "pull", "pull-many",
// "write") and returns the raw response body on HTTP 200.
func (c *Client) call(ctx context.Context, endpoint string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, roamerr.New(roamerr.KindValidation, endpoint, err)
	}

	for hop := 0; hop < maxRedirectHops; hop++ {
		base := c.baseURL
		if c.peerURL != "" {
			base = c.peerURL
		}
		url := fmt.Sprintf("%s/api/graph/%s/%s", base, c.graph, endpoint)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, roamerr.New(roamerr.KindUnknown, endpoint, err)
		}
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("x-authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, roamerr.New(roamerr.KindUnknown, endpoint, err)
		}

		if isRedirect(resp.StatusCode) {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if err := c.followRedirect(endpoint, resp); err != nil {
				return nil, err
			}
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, statusError(endpoint, resp.StatusCode, data)
		}
		if readErr != nil {
			return nil, roamerr.New(roamerr.KindUnknown, endpoint, readErr)
		}
		return data, nil
	}

	return nil, roamerr.Newf(roamerr.KindRedirect, endpoint, "redirect loop after %d hops", maxRedirectHops)
}

// followRedirect caches the peer base URL advertised in the Location
// header for the remainder of the session.
func (c *Client) followRedirect(endpoint string, resp *http.Response) error {
	loc := resp.Header.Get("Location")
	if loc == "" {
		return roamerr.Newf(roamerr.KindRedirect, endpoint, "redirect without Location header")
	}
	m := peerRe.FindStringSubmatch(loc)
	if m == nil {
		return roamerr.Newf(roamerr.KindRedirect, endpoint, "unexpected redirect format: %s", loc)
	}
	c.peerURL = fmt.Sprintf("https://%s.api.roamresearch.com:%s", m[1], m[2])
	c.logger.Debug("peer endpoint cached", slog.String("peer", c.peerURL))
	return nil
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// statusError maps a non-200 response to the error taxonomy.
func statusError(endpoint string, code int, body []byte) error {
	detail := errors.New(http.StatusText(code))
	var decoded struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &decoded) == nil && decoded.Message != "" {
		detail = errors.New(decoded.Message)
	}

	switch code {
	case http.StatusBadRequest:
		return roamerr.New(roamerr.KindValidation, endpoint, detail)
	case http.StatusUnauthorized, http.StatusForbidden:
		return roamerr.New(roamerr.KindAuth, endpoint, errors.New("invalid token or insufficient privileges"))
	case http.StatusNotFound:
		return roamerr.New(roamerr.KindNotFound, endpoint, detail)
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return roamerr.Newf(roamerr.KindTransient, endpoint, "graph not ready, retry shortly (HTTP %d)", code)
	case http.StatusInternalServerError:
		return roamerr.New(roamerr.KindServer, endpoint, detail)
	default:
		return roamerr.Newf(roamerr.KindUnknown, endpoint, "unexpected status %d: %v", code, detail)
	}
}
