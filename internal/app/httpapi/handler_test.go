package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	app "github.com/storeadmin/blocklayer/internal/app"
	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/domain/stats"
	"github.com/storeadmin/blocklayer/internal/app/storage/memory"
)

func newTestHandler(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.New()
	application, err := app.New(app.Stores{Settings: store, Pages: store, Stats: store}, app.Options{}, nil)
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	return NewHandler(application, store), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDashboardDefaultsAndSave(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/users/u1/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", rec.Code, rec.Body)
	}
	layout := decodeBody[block.DashboardLayout](t, rec)
	if len(layout.Left) == 0 {
		t.Fatalf("expected default layout, got %+v", layout)
	}

	saved := block.DashboardLayout{
		Left:  []block.Config{{ID: "a", Type: "store_stats", Settings: map[string]any{}, Data: map[string]any{}}},
		Right: []block.Config{},
	}
	rec = doJSON(t, h, http.MethodPut, "/users/u1/dashboard", saved)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("put status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodGet, "/users/u1/dashboard", nil)
	layout = decodeBody[block.DashboardLayout](t, rec)
	if len(layout.Left) != 1 || layout.Left[0].ID != "a" {
		t.Fatalf("saved layout not returned: %+v", layout)
	}
}

func TestDashboardSaveRejectsDuplicateIDs(t *testing.T) {
	h, _ := newTestHandler(t)

	payload := block.DashboardLayout{
		Left:  []block.Config{{ID: "x", Type: "store_stats"}},
		Right: []block.Config{{ID: "x", Type: "low_stock"}},
	}
	rec := doJSON(t, h, http.MethodPut, "/users/u1/dashboard", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
}

func TestDashboardRenderIncludesResolvedStats(t *testing.T) {
	h, store := newTestHandler(t)
	store.SeedStats(stats.Snapshot{Orders: 7, Revenue: 99.5, Customers: 3, Currency: "USD"})

	rec := doJSON(t, h, http.MethodGet, "/users/u1/dashboard/render", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	columns := decodeBody[map[string]string](t, rec)
	if !strings.Contains(columns["left"], "Store statistics") {
		t.Fatalf("left column missing stats block: %s", columns["left"])
	}
	if !strings.Contains(columns["left"], "USD") {
		t.Fatalf("resolved snapshot missing from render: %s", columns["left"])
	}
}

func TestSessionFlow(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/users/u1/dashboard/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body)
	}
	state := decodeBody[map[string]any](t, rec)
	sessionID, _ := state["sessionId"].(string)
	if sessionID == "" {
		t.Fatalf("no session id in %v", state)
	}

	rec = doJSON(t, h, http.MethodPost, "/sessions/"+sessionID+"/actions", map[string]any{
		"op":        "add",
		"column":    "right",
		"blockType": "low_stock",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("apply status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodPost, "/sessions/"+sessionID+"/save", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodGet, "/users/u1/dashboard", nil)
	layout := decodeBody[block.DashboardLayout](t, rec)
	if len(layout.Right) != 1 || layout.Right[0].Type != "low_stock" {
		t.Fatalf("session edit not persisted: %+v", layout)
	}

	rec = doJSON(t, h, http.MethodGet, "/sessions/"+sessionID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected saved session to be gone, got %d", rec.Code)
	}
}

func TestSessionUnknownBlockType(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/users/u1/dashboard/sessions", nil)
	state := decodeBody[map[string]any](t, rec)
	sessionID := state["sessionId"].(string)

	rec = doJSON(t, h, http.MethodPost, "/sessions/"+sessionID+"/actions", map[string]any{
		"op":        "add",
		"blockType": "bogus",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
}

func TestBlockDefinitions(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/blocks/definitions?registry=storefront", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	grouped := decodeBody[map[string][]block.Definition](t, rec)
	if len(grouped["content"]) == 0 {
		t.Fatalf("expected content definitions, got %v", grouped)
	}

	rec = doJSON(t, h, http.MethodGet, "/blocks/definitions?registry=nope", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown registry status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/blocks/definitions", nil)
	grouped = decodeBody[map[string][]block.Definition](t, rec)
	if len(grouped["analytics"]) == 0 {
		t.Fatalf("expected dashboard registry by default, got %v", grouped)
	}
}

func TestPageLifecycleOverHTTP(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/pages", map[string]any{"slug": "Bad Slug", "title": "Home"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid slug status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/pages", map[string]any{"slug": "home", "title": "Home"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	created := decodeBody[map[string]any](t, rec)
	pageID := created["id"].(string)

	rec = doJSON(t, h, http.MethodPut, "/pages/"+pageID+"/blocks", map[string]any{
		"blocks": []map[string]any{
			{"id": "h", "type": "heading", "data": map[string]any{"text": "Hello"}},
			{"id": "d", "type": "divider"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set blocks status = %d: %s", rec.Code, rec.Body)
	}

	req := httptest.NewRequest(http.MethodGet, "/pages/"+pageID+"/render", nil)
	renderRec := httptest.NewRecorder()
	h.ServeHTTP(renderRec, req)
	if renderRec.Code != http.StatusOK {
		t.Fatalf("render status = %d: %s", renderRec.Code, renderRec.Body)
	}
	if ct := renderRec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("render content type = %q", ct)
	}
	if !strings.Contains(renderRec.Body.String(), "Hello") {
		t.Fatalf("render output missing block content: %s", renderRec.Body)
	}

	rec = doJSON(t, h, http.MethodGet, "/pages/slug/home", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get by slug status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPatch, "/pages/"+pageID, map[string]any{"status": "published"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", rec.Code, rec.Body)
	}
	patched := decodeBody[map[string]any](t, rec)
	if patched["status"] != "published" {
		t.Fatalf("status not updated: %v", patched)
	}

	rec = doJSON(t, h, http.MethodDelete, "/pages/"+pageID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/pages/"+pageID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestPutPageBlocksRequiresEnvelope(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/pages", map[string]any{"slug": "home", "title": "Home"})
	created := decodeBody[map[string]any](t, rec)
	pageID := created["id"].(string)

	// A bare item list without the blocks wrapper is rejected.
	rec = doJSON(t, h, http.MethodPut, "/pages/"+pageID+"/blocks", []map[string]any{
		{"id": "h", "type": "heading"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bare list status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodPut, "/pages/"+pageID+"/blocks", map[string]any{
		"blocks": []map[string]any{{"id": "h", "type": "heading"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("enveloped list status = %d: %s", rec.Code, rec.Body)
	}
}

func TestSessionActionStatusCodes(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/users/u1/dashboard/sessions", nil)
	state := decodeBody[map[string]any](t, rec)
	sessionID := state["sessionId"].(string)

	// Unknown block id on a live session is a client error, not a 404.
	rec = doJSON(t, h, http.MethodPost, "/sessions/"+sessionID+"/actions", map[string]any{
		"op":      "select",
		"blockId": "nope",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown block status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodPost, "/sessions/missing/actions", map[string]any{"op": "deselect"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodPost, "/sessions/missing/save", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("save of unknown session status = %d: %s", rec.Code, rec.Body)
	}
}

func TestPageNotFoundMapping(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/pages/missing/render", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("render of missing page status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, "/pages/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete of missing page status = %d", rec.Code)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPut, "/users/u1/settings/theme", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid JSON status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/users/u1/settings/theme", strings.NewReader(`{"mode":"dark"}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("put status = %d: %s", rec.Code, rec.Body)
	}

	getRec := doJSON(t, h, http.MethodGet, "/users/u1/settings/theme", nil)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status = %d", getRec.Code)
	}
	if !strings.Contains(getRec.Body.String(), "dark") {
		t.Fatalf("unexpected setting body: %s", getRec.Body)
	}

	listRec := doJSON(t, h, http.MethodGet, "/users/u1/settings", nil)
	settings := decodeBody[map[string]json.RawMessage](t, listRec)
	if _, ok := settings["theme"]; !ok {
		t.Fatalf("theme missing from settings list: %v", settings)
	}

	missingRec := doJSON(t, h, http.MethodGet, "/users/u1/settings/nope", nil)
	if missingRec.Code != http.StatusNotFound {
		t.Fatalf("missing setting status = %d", missingRec.Code)
	}
}

func TestAuditTrailRecordsMutations(t *testing.T) {
	h, _ := newTestHandler(t)

	layout := block.DashboardLayout{Left: []block.Config{}, Right: []block.Config{}}
	if rec := doJSON(t, h, http.MethodPut, "/users/u1/dashboard", layout); rec.Code != http.StatusNoContent {
		t.Fatalf("put status = %d", rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, "/audit", nil)
	entries := decodeBody[[]map[string]any](t, rec)
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0]["user"] != "u1" || entries[0]["method"] != http.MethodPut {
		t.Fatalf("unexpected audit entry: %v", entries[0])
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, fmt.Sprintf("/nope/%d", 1), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
