// Package httpapi exposes the admin REST API: user settings, the dashboard
// layout and its edit sessions, block definitions, and storefront pages.
package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"

	app "github.com/storeadmin/blocklayer/internal/app"
	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/metrics"
	"github.com/storeadmin/blocklayer/internal/app/registry"
	"github.com/storeadmin/blocklayer/internal/app/render"
	pagesvc "github.com/storeadmin/blocklayer/internal/app/services/pages"
	sessionsvc "github.com/storeadmin/blocklayer/internal/app/services/sessions"
	"github.com/storeadmin/blocklayer/internal/app/storage"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app       *app.Application
	settings  storage.SettingsStore
	dashboard *render.Renderer
	audit     *auditLog
}

// NewHandler returns a router exposing the admin REST API.
func NewHandler(application *app.Application, settings storage.SettingsStore) http.Handler {
	var sink auditSink
	if path := strings.TrimSpace(os.Getenv("AUDIT_LOG_PATH")); path != "" {
		sink = &fileSink{path: path}
	}

	h := &handler{
		app:       application,
		settings:  settings,
		dashboard: render.New(application.Dashboard.Lookup(), nil),
		audit:     newAuditLog(200, sink),
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/users/{id}/settings", h.listSettings).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/settings/{key}", h.getSetting).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/settings/{key}", h.putSetting).Methods(http.MethodPut)

	r.HandleFunc("/users/{id}/dashboard", h.getDashboard).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/dashboard", h.putDashboard).Methods(http.MethodPut)
	r.HandleFunc("/users/{id}/dashboard/render", h.renderDashboard).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/dashboard/sessions", h.startSession).Methods(http.MethodPost)

	r.HandleFunc("/sessions/{id}", h.getSession).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", h.discardSession).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{id}/actions", h.applyAction).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/save", h.saveSession).Methods(http.MethodPost)

	r.HandleFunc("/blocks/definitions", h.blockDefinitions).Methods(http.MethodGet)

	r.HandleFunc("/pages", h.createPage).Methods(http.MethodPost)
	r.HandleFunc("/pages", h.listPages).Methods(http.MethodGet)
	r.HandleFunc("/pages/slug/{slug}", h.getPageBySlug).Methods(http.MethodGet)
	r.HandleFunc("/pages/{id}", h.getPage).Methods(http.MethodGet)
	r.HandleFunc("/pages/{id}", h.patchPage).Methods(http.MethodPatch)
	r.HandleFunc("/pages/{id}", h.deletePage).Methods(http.MethodDelete)
	r.HandleFunc("/pages/{id}/blocks", h.putPageBlocks).Methods(http.MethodPut)
	r.HandleFunc("/pages/{id}/render", h.renderPage).Methods(http.MethodGet)

	r.HandleFunc("/audit", h.listAudit).Methods(http.MethodGet)

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- user settings ---------------------------------------------------------

func (h *handler) listSettings(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	settings, err := h.settings.ListSettings(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if settings == nil {
		settings = map[string]json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *handler) getSetting(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	value, err := h.settings.GetSetting(r.Context(), vars["id"], vars["key"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (h *handler) putSetting(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer r.Body.Close()
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("setting value must be valid JSON"))
		return
	}

	if err := h.settings.SetSetting(r.Context(), vars["id"], vars["key"], body); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.record(r, vars["id"], http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

// --- dashboard ---------------------------------------------------------------

func (h *handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	layout, err := h.app.Layouts.Get(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if r.URL.Query().Get("resolve") == "true" {
		layout = h.app.Layouts.Resolve(r.Context(), layout)
	}
	writeJSON(w, http.StatusOK, layout)
}

func (h *handler) putDashboard(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	var layout block.DashboardLayout
	if err := decodeJSON(r.Body, &layout); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.Layouts.Save(r.Context(), userID, layout); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.record(r, userID, http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) renderDashboard(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	layout, err := h.app.Layouts.Get(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	layout = h.app.Layouts.Resolve(r.Context(), layout)

	editing := r.URL.Query().Get("editing") == "true"
	locale := r.URL.Query().Get("locale")

	left, err := h.dashboard.Render(r.Context(), render.Input{Blocks: layout.Left, Locale: locale, Editing: editing})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	right, err := h.dashboard.Render(r.Context(), render.Input{Blocks: layout.Right, Locale: locale, Editing: editing})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"left":  string(left),
		"right": string(right),
	})
}

// --- edit sessions -------------------------------------------------------------

func (h *handler) startSession(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	state, err := h.app.Sessions.Start(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	state, err := h.app.Sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *handler) applyAction(w http.ResponseWriter, r *http.Request) {
	var action sessionsvc.Action
	if err := decodeJSON(r.Body, &action); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	state, err := h.app.Sessions.Apply(r.Context(), mux.Vars(r)["id"], action)
	if err != nil {
		writeError(w, sessionErrorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *handler) saveSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if err := h.app.Sessions.Save(r.Context(), sessionID); err != nil {
		writeError(w, sessionErrorStatus(err), err)
		return
	}
	h.record(r, "", http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) discardSession(w http.ResponseWriter, r *http.Request) {
	h.app.Sessions.Discard(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// --- block definitions -----------------------------------------------------------

func (h *handler) blockDefinitions(w http.ResponseWriter, r *http.Request) {
	var reg *registry.Registry
	switch name := r.URL.Query().Get("registry"); name {
	case "", "dashboard":
		reg = h.app.Dashboard
	case "storefront":
		reg = h.app.Storefront
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown registry %q", name))
		return
	}
	writeJSON(w, http.StatusOK, reg.DefinitionsByCategory())
}

// --- pages --------------------------------------------------------------------

func (h *handler) createPage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Slug   string `json:"slug"`
		Title  string `json:"title"`
		Locale string `json:"locale"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.app.Pages.Create(r.Context(), pagesvc.CreateInput{
		Slug:   payload.Slug,
		Title:  payload.Title,
		Locale: payload.Locale,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.record(r, "", http.StatusCreated)
	writeJSON(w, http.StatusCreated, p)
}

func (h *handler) listPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.app.Pages.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func (h *handler) getPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Pages.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) getPageBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Pages.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) patchPage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Slug   *string `json:"slug"`
		Title  *string `json:"title"`
		Status *string `json:"status"`
		Locale *string `json:"locale"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.app.Pages.Update(r.Context(), mux.Vars(r)["id"], pagesvc.UpdateInput{
		Slug:   payload.Slug,
		Title:  payload.Title,
		Status: payload.Status,
		Locale: payload.Locale,
	})
	if err != nil {
		writeError(w, pageErrorStatus(err), err)
		return
	}
	h.record(r, "", http.StatusOK)
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) deletePage(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Pages.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, pageErrorStatus(err), err)
		return
	}
	h.record(r, "", http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) putPageBlocks(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Blocks []block.PageBlockItem `json:"blocks"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.app.Pages.SetBlocks(r.Context(), mux.Vars(r)["id"], payload.Blocks)
	if err != nil {
		writeError(w, pageErrorStatus(err), err)
		return
	}
	h.record(r, "", http.StatusOK)
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) renderPage(w http.ResponseWriter, r *http.Request) {
	html, err := h.app.Pages.Render(r.Context(), pagesvc.RenderInput{
		PageID:  mux.Vars(r)["id"],
		Locale:  r.URL.Query().Get("locale"),
		Editing: r.URL.Query().Get("editing") == "true",
	})
	if err != nil {
		writeError(w, pageErrorStatus(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// sessionErrorStatus maps a missing session to 404. Every other session
// error (bad action, unknown block id) is a 400 against a live session.
func sessionErrorStatus(err error) int {
	if errors.Is(err, sessionsvc.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// pageErrorStatus maps page lookup failures to 404 and everything else to
// 400. Both store implementations signal missing rows differently.
func pageErrorStatus(err error) int {
	if errors.Is(err, sql.ErrNoRows) || strings.Contains(err.Error(), "not found") {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
