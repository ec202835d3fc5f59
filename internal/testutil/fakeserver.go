package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/ansuz/internal/roamapi"
	"github.com/starford/ansuz/internal/roamerr"
)

// NewServer mounts a FakeGraph behind the graph-scoped REST surface the
// real backend exposes: bearer auth, the four POST endpoints, and the
// result envelope. It lets the HTTP client be exercised end to end.
func NewServer(fg *FakeGraph, token string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api/graph/{graph}", func(r chi.Router) {
		r.Use(authMiddleware(token))
		r.Use(graphMiddleware(fg))
		r.Post("/q", handleQuery(fg))
		r.Post("/pull", handlePull(fg))
		r.Post("/pull-many", handlePullMany(fg))
		r.Post("/write", handleWrite(fg))
	})
	return r
}

func authMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func graphMiddleware(fg *FakeGraph) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "graph") != fg.GraphName {
				writeJSON(w, http.StatusNotFound, map[string]string{"message": "graph not found"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func handleQuery(fg *FakeGraph) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		res, err := fg.Query(r.Context(), body.Query)
		if err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, res)
	}
}

func handlePull(fg *FakeGraph) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EID      string `json:"eid"`
			Selector string `json:"selector"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		res, err := fg.Pull(r.Context(), body.Selector, body.EID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, res)
	}
}

func handlePullMany(fg *FakeGraph) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EIDs     []string `json:"eids"`
			Selector string   `json:"selector"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		res, err := fg.PullMany(r.Context(), body.Selector, body.EIDs)
		if err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, res)
	}
}

func handleWrite(fg *FakeGraph) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		req, err := decodeWrite(data)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		if err := fg.Write(r.Context(), req); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

// decodeWrite dispatches the raw payload to the typed request matching
// its action field.
func decodeWrite(data []byte) (roamapi.WriteRequest, error) {
	var probe struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.Action {
	case roamapi.ActionCreateBlock:
		var req roamapi.CreateBlockRequest
		err := json.Unmarshal(data, &req)
		return req, err
	case roamapi.ActionMoveBlock:
		var req roamapi.MoveBlockRequest
		err := json.Unmarshal(data, &req)
		return req, err
	case roamapi.ActionUpdateBlock:
		var req roamapi.UpdateBlockRequest
		err := json.Unmarshal(data, &req)
		return req, err
	case roamapi.ActionDeleteBlock:
		var req roamapi.DeleteBlockRequest
		err := json.Unmarshal(data, &req)
		return req, err
	case roamapi.ActionCreatePage:
		var req roamapi.CreatePageRequest
		err := json.Unmarshal(data, &req)
		return req, err
	case roamapi.ActionUpdatePage:
		var req roamapi.UpdatePageRequest
		err := json.Unmarshal(data, &req)
		return req, err
	case roamapi.ActionDeletePage:
		var req roamapi.DeletePageRequest
		err := json.Unmarshal(data, &req)
		return req, err
	default:
		return nil, fmt.Errorf("unknown action %q", probe.Action)
	}
}

// writeError maps FakeGraph errors onto the status codes the real
// backend would use.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusBadRequest
	if roamerr.IsTransient(err) {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"message": err.Error()})
}

func writeResult(w http.ResponseWriter, res json.RawMessage) {
	if res == nil {
		res = json.RawMessage("null")
	}
	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"result": res})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
