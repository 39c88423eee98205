package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lyricist/internal/apperr"
	"github.com/starford/lyricist/internal/document"
	"github.com/starford/lyricist/internal/models"
	"github.com/starford/lyricist/internal/rhymes"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	docs   *document.Service
	lookup rhymes.Lookup
}

// NewHandler creates a new Handler.
func NewHandler(docs *document.Service, lookup rhymes.Lookup) *Handler {
	return &Handler{docs: docs, lookup: lookup}
}

// documentPath extracts the document path from the URL (everything after
// /api/documents/). Supports encoded slashes (e.g. songs%2Friver.lyrics).
func documentPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, op string, err error, attrs ...any) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidPath):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("document already exists"))
	case errors.Is(err, apperr.ErrLookup):
		slog.Warn(op+" failed", append(attrs, slog.String("error", err.Error()))...)
		writeJSON(w, http.StatusBadGateway, errorBody("rhyme lookup failed"))
	default:
		slog.Error(op+" failed", append(attrs, slog.String("error", err.Error()))...)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List indexed documents
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	rows, total, err := h.docs.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	items := make([]DocumentListItem, len(rows))
	for i, row := range rows {
		items[i] = newDocumentListItem(row)
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: total})
}

// NewDocument handles POST /api/documents/new.
//
//	@Summary		Start a new, unsaved document
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	DocumentResponse
//	@Security		BearerAuth
//	@Router			/documents/new [post]
func (h *Handler) NewDocument(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newDocumentResponse(h.docs.New()))
}

// OpenDocument handles GET /api/documents/*.
//
//	@Summary		Open a document by path
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	DocumentResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) OpenDocument(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.docs.Open(r.Context(), path)
	if err != nil {
		writeError(w, "open document", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, newDocumentResponse(doc))
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Create a new document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocumentRequest	true	"Document to create"
//	@Success		201		{object}	DocumentResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	doc := &models.Document{Path: req.Path, Body: req.Body, Reference: req.Reference}
	if err := h.docs.Create(r.Context(), doc); err != nil {
		writeError(w, "create document", err, slog.String("path", req.Path))
		return
	}
	writeJSON(w, http.StatusCreated, newDocumentResponse(doc))
}

// SaveDocument handles PUT /api/documents/*. The header line is rebuilt
// from the submitted reference; a null reference removes it.
//
//	@Summary		Save a document to a path
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string				true	"Document path"
//	@Param			body	body		SaveDocumentRequest	true	"Body and reference"
//	@Success		200		{object}	DocumentResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [put]
func (h *Handler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req SaveDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	doc := h.docs.New()
	doc.Body = req.Body
	if req.Reference != nil {
		if err := h.docs.Associate(doc, req.Reference.Locator); err != nil {
			writeError(w, "save document", err, slog.String("path", path))
			return
		}
	}
	if err := h.docs.SaveAs(r.Context(), doc, path); err != nil {
		writeError(w, "save document", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, newDocumentResponse(doc))
}

// Recent handles GET /api/recent.
//
//	@Summary		Recently opened or saved documents
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	RecentResponse
//	@Security		BearerAuth
//	@Router			/recent [get]
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	paths, err := h.docs.Recent(r.Context())
	if err != nil {
		writeError(w, "recent", err)
		return
	}
	if paths == nil {
		paths = []string{}
	}
	writeJSON(w, http.StatusOK, RecentResponse{Paths: paths})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.docs.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Rhymes handles GET /api/rhymes.
//
//	@Summary		Rhyme candidates for a word
//	@Tags			rhymes
//	@Produce		json
//	@Param			word	query		string	true	"Word to rhyme"
//	@Success		200		{object}	RhymesResponse
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rhymes [get]
func (h *Handler) Rhymes(w http.ResponseWriter, r *http.Request) {
	word := strings.TrimSpace(r.URL.Query().Get("word"))
	if word == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'word' is required"))
		return
	}
	candidates, err := h.lookup.Rhymes(r.Context(), word)
	if err != nil {
		if !errors.Is(err, apperr.ErrLookup) {
			err = errors.Join(apperr.ErrLookup, err)
		}
		writeError(w, "rhymes", err, slog.String("word", word))
		return
	}
	if candidates == nil {
		candidates = []models.RhymeCandidate{}
	}
	writeJSON(w, http.StatusOK, RhymesResponse{Word: word, Candidates: candidates})
}
