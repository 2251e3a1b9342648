// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/routebridge/internal/engine"
	"github.com/wneessen/routebridge/internal/geo"
	"github.com/wneessen/routebridge/internal/logger"
	"github.com/wneessen/routebridge/internal/routing"
)

const testDataset = "../engine/testdata/town.json"

// stubRouter rejects invalid input like the bridge and otherwise fails with no route.
type stubRouter struct {
	stats    bool
	deadline bool
}

func (s *stubRouter) RouteContext(ctx context.Context, start, end geo.Coordinate) routing.Result {
	_, s.deadline = ctx.Deadline()
	if err := start.Validate(); err != nil {
		return routing.NewFailure(routing.ReasonInvalidInput, "start "+err.Error())
	}
	return routing.NewFailure(routing.ReasonNoRoute, "")
}

func (s *stubRouter) Search(string, int) ([]engine.Place, error) {
	return nil, routing.ErrSearchUnsupported
}

func (s *stubRouter) Stats() (engine.Stats, bool) {
	return engine.Stats{Name: "stub", Nodes: 1}, s.stats
}

func TestServer(t *testing.T) {
	bridge, err := routing.New(testDataset)
	if err != nil {
		t.Fatalf("failed to create bridge: %s", err)
	}
	t.Cleanup(func() { _ = bridge.Close() })
	handler := New(bridge, logger.Discard(), time.Second*5).Handler()

	t.Run("ping answers with pong", func(t *testing.T) {
		rec := serve(t, handler, http.MethodGet, "/ping", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "pong") {
			t.Errorf("expected pong, got %s", rec.Body.String())
		}
	})
	t.Run("stats describe the dataset", func(t *testing.T) {
		rec := serve(t, handler, http.MethodGet, "/api/v1/stats", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var stats engine.Stats
		if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
			t.Fatalf("failed to decode stats: %s", err)
		}
		if stats.Name != "synthetic-town" || stats.Nodes != 8 {
			t.Errorf("unexpected stats: %+v", stats)
		}
	})
	t.Run("route query succeeds", func(t *testing.T) {
		body := `{"start":{"lat":52.5,"lon":13.4},"end":{"lat":52.502,"lon":13.404}}`
		rec := serve(t, handler, http.MethodPost, "/api/v1/route", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var got struct {
			Status       string           `json:"status"`
			Coordinates  []geo.Coordinate `json:"coordinates"`
			Instructions []string         `json:"instructions"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("failed to decode result: %s", err)
		}
		if got.Status != "success" || len(got.Coordinates) != 4 || len(got.Instructions) != 3 {
			t.Errorf("unexpected result: %+v", got)
		}
	})
	t.Run("route query without path is answered with a failure", func(t *testing.T) {
		body := `{"start":{"lat":52.5,"lon":13.4},"end":{"lat":52.6,"lon":13.5}}`
		rec := serve(t, handler, http.MethodPost, "/api/v1/route", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"reason":"no route"`) {
			t.Errorf("expected no route failure, got %s", rec.Body.String())
		}
	})
	t.Run("route query with invalid coordinate is a bad request", func(t *testing.T) {
		body := `{"start":{"lat":95,"lon":13.4},"end":{"lat":52.502,"lon":13.404}}`
		rec := serve(t, handler, http.MethodPost, "/api/v1/route", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "start latitude 95 is above the maximum of 90") {
			t.Errorf("expected validation message, got %s", rec.Body.String())
		}
	})
	t.Run("malformed JSON is a bad request", func(t *testing.T) {
		rec := serve(t, handler, http.MethodPost, "/api/v1/route", `{"start":`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})
	t.Run("search lists matching places", func(t *testing.T) {
		rec := serve(t, handler, http.MethodGet, "/api/v1/search?q=station", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var got struct {
			Places []engine.Place `json:"places"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("failed to decode places: %s", err)
		}
		if len(got.Places) != 2 || got.Places[0].Name != "Central Station" {
			t.Errorf("expected Central Station and Station Bakery, got %+v", got.Places)
		}
	})
	t.Run("search honors the limit", func(t *testing.T) {
		rec := serve(t, handler, http.MethodGet, "/api/v1/search?q=synthtown&limit=1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if strings.Count(rec.Body.String(), `"name"`) != 1 {
			t.Errorf("expected a single place, got %s", rec.Body.String())
		}
	})
	t.Run("search without matches returns an empty list", func(t *testing.T) {
		rec := serve(t, handler, http.MethodGet, "/api/v1/search?q=atlantis", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if rec.Body.String() != `{"places":[]}` {
			t.Errorf("expected empty place list, got %s", rec.Body.String())
		}
	})
	t.Run("search without query is a bad request", func(t *testing.T) {
		for _, target := range []string{"/api/v1/search", "/api/v1/search?q=%20%20", "/api/v1/search?q=x&limit=99"} {
			rec := serve(t, handler, http.MethodGet, target, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400 for %s, got %d", target, rec.Code)
			}
		}
	})
	t.Run("missing end point is a bad request", func(t *testing.T) {
		rec := serve(t, handler, http.MethodPost, "/api/v1/route", `{"start":{"lat":1,"lon":2}}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestServer_Stub(t *testing.T) {
	t.Run("stats without dataset are not found", func(t *testing.T) {
		handler := New(&stubRouter{}, logger.Discard(), 0).Handler()
		rec := serve(t, handler, http.MethodGet, "/api/v1/stats", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
	t.Run("search without support is not implemented", func(t *testing.T) {
		handler := New(&stubRouter{}, logger.Discard(), 0).Handler()
		rec := serve(t, handler, http.MethodGet, "/api/v1/search?q=station", "")
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("expected status 501, got %d", rec.Code)
		}
	})
	t.Run("queries carry the configured timeout", func(t *testing.T) {
		router := &stubRouter{}
		handler := New(router, logger.Discard(), time.Second).Handler()
		body := `{"start":{"lat":1,"lon":2},"end":{"lat":3,"lon":4}}`
		_ = serve(t, handler, http.MethodPost, "/api/v1/route", body)
		if !router.deadline {
			t.Error("expected query context to have a deadline")
		}
	})
	t.Run("queries without timeout have no deadline", func(t *testing.T) {
		router := &stubRouter{}
		handler := New(router, logger.Discard(), 0).Handler()
		body := `{"start":{"lat":1,"lon":2},"end":{"lat":3,"lon":4}}`
		_ = serve(t, handler, http.MethodPost, "/api/v1/route", body)
		if router.deadline {
			t.Error("expected query context without deadline")
		}
	})
}

func serve(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequestWithContext(t.Context(), method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}
