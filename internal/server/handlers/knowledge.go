package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/noovy/concierge/internal/knowledge"
	"github.com/noovy/concierge/internal/store"
	"github.com/noovy/concierge/internal/upload"
	"github.com/noovy/concierge/pkg/api"
)

// KnowledgeHandler serves knowledge-base endpoints.
type KnowledgeHandler struct {
	KB      knowledge.Store
	Uploads *upload.Handler
	DB      *store.DB
}

// Search handles GET /api/knowledge/search.
func (h *KnowledgeHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query parameter q is required")
		return
	}
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := h.KB.Search(r.Context(), query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "knowledge_error", err.Error())
		return
	}
	writeJSON(w, api.SearchResponse{Results: results})
}

// Add handles POST /api/knowledge/add.
func (h *KnowledgeHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req api.KnowledgeItem
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse request body")
		return
	}
	if req.Title == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title and content are required")
		return
	}
	if req.Category == "" {
		req.Category = "general"
	}

	id, err := h.KB.Add(r.Context(), knowledge.Item{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "knowledge_error", err.Error())
		return
	}
	if h.DB != nil {
		if err := h.DB.AddKnowledgeItem(req.Title, req.Content, req.Category, req.Tags); err != nil {
			log.Printf("persist knowledge item: %v", err)
		}
	}
	writeJSON(w, api.AddKnowledgeResponse{Success: true, ID: id})
}

// Import handles POST /api/knowledge/import: a JSON document with an items
// array, validated as a whole before anything is stored.
func (h *KnowledgeHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 5<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	ids, err := knowledge.Import(r.Context(), h.KB, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_import", err.Error())
		return
	}
	writeJSON(w, map[string]any{"success": true, "ids": ids})
}

// Upload handles POST /api/knowledge/upload: a multipart document whose
// extracted text becomes a knowledge item.
func (h *KnowledgeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(upload.MaxFileSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, upload.MaxFileSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	category := r.FormValue("category")
	if category == "" {
		category = "general"
	}

	result, validationErrors, err := h.Uploads.Process(header.Filename, content, category)
	if err != nil {
		if errors.Is(err, upload.ErrDuplicate) {
			writeJSON(w, api.UploadResponse{Success: false, Duplicate: true, Filename: header.Filename})
			return
		}
		writeError(w, http.StatusInternalServerError, "upload_error", err.Error())
		return
	}
	if len(validationErrors) > 0 {
		writeJSON(w, api.UploadResponse{Success: false, Filename: header.Filename, Errors: validationErrors})
		return
	}

	title := strings.TrimSuffix(header.Filename, result.Info.Extension)
	itemID, err := h.KB.Add(r.Context(), knowledge.Item{
		Title:    title,
		Content:  result.ExtractedText,
		Category: category,
		Tags:     []string{"upload"},
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "knowledge_error", err.Error())
		return
	}

	writeJSON(w, api.UploadResponse{
		Success:  true,
		FileID:   result.FileID,
		Filename: result.Filename,
		ItemID:   itemID,
	})
}

// Files handles GET /api/knowledge/files.
func (h *KnowledgeHandler) Files(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	writeJSON(w, map[string]any{"files": h.Uploads.ListFiles(category)})
}

// DeleteFile handles DELETE /api/knowledge/files/{id}.
func (h *KnowledgeHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.Uploads.DeleteFile(id) {
		writeError(w, http.StatusNotFound, "not_found", "file not found")
		return
	}
	writeJSON(w, map[string]any{"success": true})
}
