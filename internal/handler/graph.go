package handler

import (
	"io"
	"log"
	"net/http"

	"forceview/internal/codec"
	"forceview/internal/repository"
	"forceview/internal/service"
)

// maxImportBytes bounds snapshot uploads
const maxImportBytes = 32 << 20

// GraphHandler handles graph API requests
type GraphHandler struct {
	svc *service.GraphService
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(svc *service.GraphService) *GraphHandler {
	return &GraphHandler{svc: svc}
}

// Register adds the graph routes to mux
func (h *GraphHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/graph", h.GetGraph)
	mux.HandleFunc("DELETE /api/graph", h.ClearGraph)
	mux.HandleFunc("GET /api/stats", h.GetStats)
	mux.HandleFunc("GET /api/nodes/{id}", h.GetNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", h.DeleteNode)
	mux.HandleFunc("PUT /api/authors/{id}", h.PutAuthor)
	mux.HandleFunc("PUT /api/outputs/{id}", h.PutOutput)
	mux.HandleFunc("POST /api/authorship", h.AddAuthorship)
	mux.HandleFunc("POST /api/import/{format}", h.Import)
	mux.HandleFunc("GET /api/export/{format}", h.Export)
}

// GetGraph returns the validated snapshot
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		writeFailure(w, "get graph", err)
		return
	}
	writeJSON(w, snap, http.StatusOK)
}

// GetStats returns node and link counts
func (h *GraphHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeFailure(w, "get stats", err)
		return
	}
	writeJSON(w, stats, http.StatusOK)
}

// GetNode returns a single node
func (h *GraphHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.svc.GetNode(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, "get node", err)
		return
	}
	writeJSON(w, node, http.StatusOK)
}

// AuthorRequest is the body of an author upsert; the id comes from the path
type AuthorRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name" validate:"required"`
	ORCID     string `json:"orcid"`
}

// OutputRequest is the body of an output upsert; the id comes from the path
type OutputRequest struct {
	Title string `json:"title" validate:"required"`
	DOI   string `json:"doi"`
}

// AuthorshipRequest links an author to an output
type AuthorshipRequest struct {
	AuthorID string `json:"author_id" validate:"required"`
	OutputID string `json:"output_id" validate:"required"`
}

// PutAuthor creates or updates the author named in the path
func (h *GraphHandler) PutAuthor(w http.ResponseWriter, r *http.Request) {
	var req AuthorRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	author := &repository.Author{
		ID:        r.PathValue("id"),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ORCID:     req.ORCID,
	}
	if err := h.svc.PutAuthor(r.Context(), author); err != nil {
		writeFailure(w, "save author", err)
		return
	}
	writeJSON(w, author, http.StatusOK)
}

// PutOutput creates or updates the output named in the path
func (h *GraphHandler) PutOutput(w http.ResponseWriter, r *http.Request) {
	var req OutputRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	output := &repository.Output{
		ID:    r.PathValue("id"),
		Title: req.Title,
		DOI:   req.DOI,
	}
	if err := h.svc.PutOutput(r.Context(), output); err != nil {
		writeFailure(w, "save output", err)
		return
	}
	writeJSON(w, output, http.StatusOK)
}

// AddAuthorship links an author to an output
func (h *GraphHandler) AddAuthorship(w http.ResponseWriter, r *http.Request) {
	var req AuthorshipRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	if err := h.svc.AddAuthorship(r.Context(), req.AuthorID, req.OutputID); err != nil {
		writeFailure(w, "add authorship", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNode removes a node and its links
func (h *GraphHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNode(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, "delete node", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import replaces the stored graph with the request body
func (h *GraphHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeBodyError(w, err)
		return
	}

	result, err := h.svc.Import(r.Context(), r.PathValue("format"), data)
	if err != nil {
		writeFailure(w, "import graph", err)
		return
	}
	writeJSON(w, result, http.StatusOK)
}

// Export writes the graph as an attachment in the requested format
func (h *GraphHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	c, err := codec.Lookup(format)
	if err != nil {
		writeFailure(w, "export graph", err)
		return
	}

	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		writeFailure(w, "export graph", err)
		return
	}

	contentType := "application/json"
	if c.Format() == "yaml" {
		contentType = "application/x-yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=graph."+c.Format())

	if err := c.Export(snap, w); err != nil {
		// Can't write error response as we already set headers
		log.Printf("Failed to export %s: %v", c.Format(), err)
	}
}

// ClearGraph removes every stored node and link
func (h *GraphHandler) ClearGraph(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context()); err != nil {
		writeFailure(w, "clear graph", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
