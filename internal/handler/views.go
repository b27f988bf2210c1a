package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"forceview/internal/render"
	"forceview/internal/service"
)

// GestureRecorder counts gestures by kind and outcome
type GestureRecorder interface {
	RecordGesture(kind string, err error)
}

// ViewHandler handles view and gesture requests
type ViewHandler struct {
	views    *service.ViewManager
	gestures GestureRecorder
}

// NewViewHandler creates a view handler. gestures may be nil.
func NewViewHandler(views *service.ViewManager, gestures GestureRecorder) *ViewHandler {
	return &ViewHandler{views: views, gestures: gestures}
}

// Register adds the view routes to mux
func (h *ViewHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/views", h.ListViews)
	mux.HandleFunc("POST /api/views", h.CreateView)
	mux.HandleFunc("DELETE /api/views/{view}", h.DeleteView)
	mux.HandleFunc("POST /api/views/{view}/rebuild", h.RebuildView)
	mux.HandleFunc("GET /api/views/{view}/scene", h.GetScene)
	mux.HandleFunc("GET /api/views/{view}/scene.svg", h.GetSceneSVG)
	mux.HandleFunc("GET /api/views/{view}/nodes", h.GetNodes)
	mux.HandleFunc("GET /api/views/{view}/hit", h.HitTest)
	mux.HandleFunc("POST /api/views/{view}/drag", h.Drag)
	mux.HandleFunc("POST /api/views/{view}/hover", h.Hover)
	mux.HandleFunc("POST /api/views/{view}/dblclick", h.DoubleClick)
}

// DragRequest is one phase of a drag gesture in scene coordinates
type DragRequest struct {
	Phase  string  `json:"phase" validate:"required,oneof=start move end"`
	NodeID string  `json:"node_id" validate:"required"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// HoverRequest is a pointer enter or leave in page coordinates
type HoverRequest struct {
	Phase  string  `json:"phase" validate:"required,oneof=enter leave"`
	NodeID string  `json:"node_id" validate:"required"`
	PageX  float64 `json:"page_x"`
	PageY  float64 `json:"page_y"`
}

// DoubleClickRequest names the node that was double-clicked. ClientID is
// the event stream client that should navigate; the X-Client-ID header is
// used when it is empty.
type DoubleClickRequest struct {
	NodeID   string `json:"node_id" validate:"required"`
	ClientID string `json:"client_id,omitempty"`
}

// NavigateResponse is the location a double-click resolved to
type NavigateResponse struct {
	NodeID   string `json:"node_id"`
	Location string `json:"location"`
}

// ListViews returns the running views
func (h *ViewHandler) ListViews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.views.List(), http.StatusOK)
}

// CreateView starts a new view over the current graph
func (h *ViewHandler) CreateView(w http.ResponseWriter, r *http.Request) {
	info, err := h.views.Create(r.Context())
	if err != nil {
		writeFailure(w, "create view", err)
		return
	}
	writeJSON(w, info, http.StatusCreated)
}

// DeleteView stops a view
func (h *ViewHandler) DeleteView(w http.ResponseWriter, r *http.Request) {
	if err := h.views.Close(r.PathValue("view")); err != nil {
		writeFailure(w, "close view", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RebuildView replaces a view with a fresh one over the current graph
func (h *ViewHandler) RebuildView(w http.ResponseWriter, r *http.Request) {
	info, err := h.views.Rebuild(r.Context(), r.PathValue("view"))
	if err != nil {
		writeFailure(w, "rebuild view", err)
		return
	}
	writeJSON(w, info, http.StatusOK)
}

// GetScene returns the current scene as JSON
func (h *ViewHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	scene, err := h.views.Scene(r.Context(), r.PathValue("view"))
	if err != nil {
		writeFailure(w, "get scene", err)
		return
	}
	writeJSON(w, scene, http.StatusOK)
}

// GetSceneSVG renders the current scene as an SVG document. The ETag is a
// hash of the document so unchanged scenes answer 304.
func (h *ViewHandler) GetSceneSVG(w http.ResponseWriter, r *http.Request) {
	scene, err := h.views.Scene(r.Context(), r.PathValue("view"))
	if err != nil {
		writeFailure(w, "get scene", err)
		return
	}

	var buf bytes.Buffer
	if err := render.SVG(&buf, scene); err != nil {
		writeFailure(w, "render scene", err)
		return
	}

	etag := `"` + strconv.FormatUint(xxhash.Sum64(buf.Bytes()), 16) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// GetNodes returns node positions and drag state
func (h *ViewHandler) GetNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.views.Nodes(r.Context(), r.PathValue("view"))
	if err != nil {
		writeFailure(w, "get nodes", err)
		return
	}
	writeJSON(w, nodes, http.StatusOK)
}

// HitTest returns the node under the x and y query coordinates
func (h *ViewHandler) HitTest(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		writeError(w, "Invalid coordinates", "x and y must be numbers", http.StatusBadRequest)
		return
	}

	id, found, err := h.views.NodeAt(r.Context(), r.PathValue("view"), x, y)
	if err != nil {
		writeFailure(w, "hit test", err)
		return
	}
	if !found {
		writeError(w, "Not found", "no node at point", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"node_id": id}, http.StatusOK)
}

// Drag applies one drag phase
func (h *ViewHandler) Drag(w http.ResponseWriter, r *http.Request) {
	var req DragRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	err := h.views.Drag(r.Context(), r.PathValue("view"), req.Phase, req.NodeID, req.X, req.Y)
	h.record("drag_"+req.Phase, err)
	if err != nil {
		writeFailure(w, "drag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Hover shows or hides the tooltip
func (h *ViewHandler) Hover(w http.ResponseWriter, r *http.Request) {
	var req HoverRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	err := h.views.Hover(r.Context(), r.PathValue("view"), req.Phase, req.NodeID, req.PageX, req.PageY)
	h.record("hover_"+req.Phase, err)
	if err != nil {
		writeFailure(w, "hover", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DoubleClick resolves the node's detail location and sends the navigate
// event to the requesting client
func (h *ViewHandler) DoubleClick(w http.ResponseWriter, r *http.Request) {
	var req DoubleClickRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if req.ClientID == "" {
		req.ClientID = r.Header.Get("X-Client-ID")
	}

	location, err := h.views.DoubleClick(r.Context(), r.PathValue("view"), req.ClientID, req.NodeID)
	h.record("dblclick", err)
	if err != nil {
		writeFailure(w, "navigate", err)
		return
	}
	writeJSON(w, NavigateResponse{NodeID: req.NodeID, Location: location}, http.StatusOK)
}

func (h *ViewHandler) record(kind string, err error) {
	if h.gestures != nil {
		h.gestures.RecordGesture(kind, err)
	}
}
