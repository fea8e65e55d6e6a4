package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nberglund/othala/internal/apperr"
	"github.com/nberglund/othala/internal/audit"
	"github.com/nberglund/othala/internal/vault"
)

// Handler holds API route handlers.
type Handler struct {
	svc   *vault.Service
	audit *audit.Log
}

// NewHandler creates a new Handler. auditLog may be nil when auditing is
// disabled.
func NewHandler(svc *vault.Service, auditLog *audit.Log) *Handler {
	return &Handler{svc: svc, audit: auditLog}
}

// filePath extracts the vault path from the URL (everything after /api/files/).
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func filePath(r *http.Request) string {
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

// respondErr translates vault error kinds to HTTP statuses. Unclassified
// errors are storage faults and map to 500 without leaking details.
func respondErr(w http.ResponseWriter, op string, err error) {
	kind := apperr.Kind(err)
	switch kind {
	case "not_found":
		writeJSON(w, http.StatusNotFound, errorBody(err.Error(), kind))
	case "already_exists":
		writeJSON(w, http.StatusConflict, errorBody(err.Error(), kind))
	case "path_escape", "invalid_path", "confirmation_required":
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error(), kind))
	case "heading_not_found":
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error(), kind))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error", kind))
	}
}

// ListFiles handles GET /api/files. Without a dir parameter it lists the
// vault root; with one it lists that directory.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	if dir == "" {
		result, err := h.svc.ListVaultFiles(r.Context())
		if err != nil {
			respondErr(w, "list files", err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}
	result, err := h.svc.ListDirectoryFiles(r.Context(), dir)
	if err != nil {
		respondErr(w, "list directory", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetFile handles GET /api/files/*.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required", "invalid_path"))
		return
	}
	fc, err := h.svc.GetFileContent(r.Context(), path)
	if err != nil {
		respondErr(w, "get file", err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

// CreateFile handles POST /api/files.
func (h *Handler) CreateFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body", ""))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("file_path is required", "invalid_path"))
		return
	}
	addFrontmatter := true
	if req.AddFrontmatter != nil {
		addFrontmatter = *req.AddFrontmatter
	}
	receipt, err := h.svc.CreateFile(r.Context(), req.Path, req.Content, addFrontmatter)
	if err != nil {
		respondErr(w, "create file", err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// UpdateFile handles PUT /api/files/*.
func (h *Handler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required", "invalid_path"))
		return
	}
	var req UpdateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body", ""))
		return
	}
	receipt, err := h.svc.UpdateFile(r.Context(), path, req.Content)
	if err != nil {
		respondErr(w, "update file", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// PatchFile handles PATCH /api/files/*. With a heading it inserts content
// relative to that heading; without one it appends to the end of the file.
func (h *Handler) PatchFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required", "invalid_path"))
		return
	}
	var req PatchFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body", ""))
		return
	}

	var (
		receipt vault.Receipt
		err     error
	)
	if req.Heading == "" {
		receipt, err = h.svc.AppendToFile(r.Context(), path, req.Content)
	} else {
		receipt, err = h.svc.PatchFile(r.Context(), path, req.Content, req.Heading, req.Position)
	}
	if err != nil {
		respondErr(w, "patch file", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// DeleteFile handles DELETE /api/files/*. The confirm query parameter
// must be "true" or the request is rejected before touching the vault.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required", "invalid_path"))
		return
	}
	confirm := r.URL.Query().Get("confirm") == "true"
	receipt, err := h.svc.DeleteFile(r.Context(), path, confirm)
	if err != nil {
		respondErr(w, "delete file", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// BatchGet handles POST /api/batch.
func (h *Handler) BatchGet(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req BatchGetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body", ""))
		return
	}
	if len(req.Paths) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("file_paths is required", ""))
		return
	}
	result, err := h.svc.BatchGetFiles(r.Context(), req.Paths)
	if err != nil {
		respondErr(w, "batch get", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required", ""))
		return
	}
	caseSensitive := r.URL.Query().Get("case_sensitive") == "true"
	result, err := h.svc.SearchVault(r.Context(), q, caseSensitive)
	if err != nil {
		respondErr(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Recent handles GET /api/recent.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	result, err := h.svc.GetRecentFiles(r.Context(), limit, days)
	if err != nil {
		respondErr(w, "recent", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Daily handles GET /api/daily. Without a date parameter it resolves
// today's note.
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid date: expected YYYY-MM-DD", ""))
			return
		}
	}
	note, err := h.svc.GetDailyNote(r.Context(), date)
	if err != nil {
		respondErr(w, "daily note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Tag handles GET /api/tags/{tag}.
func (h *Handler) Tag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	if tag == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("tag is required", ""))
		return
	}
	result, err := h.svc.SearchByTag(r.Context(), tag)
	if err != nil {
		respondErr(w, "tag search", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Audit handles GET /api/audit. Returns 404 when auditing is disabled.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeJSON(w, http.StatusNotFound, errorBody("audit log disabled", ""))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.audit.Recent(limit)
	if err != nil {
		respondErr(w, "audit", err)
		return
	}
	writeJSON(w, http.StatusOK, AuditResponse{Entries: entries, Count: len(entries)})
}
