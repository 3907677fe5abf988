// Package upload processes document uploads for the knowledge base.
package upload

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/noovy/concierge/pkg/api"
)

// MaxFileSize is the upload size limit.
const MaxFileSize = 10 * 1024 * 1024

// allowedExtensions lists the file types we can extract text from. PDF and
// DOCX are not supported here; extraction for them needs a converter in front
// of the upload endpoint.
var allowedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".json": true,
	".csv":  true,
}

// ErrDuplicate is returned when the same content was uploaded before.
var ErrDuplicate = errors.New("file already uploaded")

// Result is a processed upload.
type Result struct {
	FileID        string
	Filename      string
	ExtractedText string
	Category      string
	Info          api.FileInfo
}

type fileRecord struct {
	info api.FileInfo
	hash string
}

// Handler validates, deduplicates and stores uploaded files, extracting their
// text for the knowledge base.
type Handler struct {
	uploadDir string

	mu    sync.Mutex
	files map[string]fileRecord // keyed by content hash
	now   func() time.Time
}

// NewHandler creates a Handler saving raw uploads under uploadDir, which is
// created if missing.
func NewHandler(uploadDir string) (*Handler, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Handler{
		uploadDir: uploadDir,
		files:     make(map[string]fileRecord),
		now:       time.Now,
	}, nil
}

// Validate checks extension and size, returning user-facing Hebrew errors.
func Validate(filename string, size int) []string {
	var errs []string
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		exts := make([]string, 0, len(allowedExtensions))
		for e := range allowedExtensions {
			exts = append(exts, e)
		}
		errs = append(errs, fmt.Sprintf("סוג קובץ לא נתמך: %s. סוגים נתמכים: %s", ext, strings.Join(exts, ", ")))
	}
	if size > MaxFileSize {
		errs = append(errs, fmt.Sprintf("הקובץ גדול מדי. גודל מקסימלי: %dMB", MaxFileSize/(1024*1024)))
	}
	return errs
}

// Process validates, extracts text from, and stores an upload.
// Duplicate content returns ErrDuplicate with the existing file id in Result.
func (h *Handler) Process(filename string, content []byte, category string) (*Result, []string, error) {
	if category == "" {
		category = "general"
	}
	if errs := Validate(filename, len(content)); len(errs) > 0 {
		return nil, errs, nil
	}

	sum := md5.Sum(content)
	hash := hex.EncodeToString(sum[:])

	h.mu.Lock()
	if existing, ok := h.files[hash]; ok {
		h.mu.Unlock()
		return &Result{FileID: existing.info.ID}, nil, ErrDuplicate
	}
	h.mu.Unlock()

	ext := strings.ToLower(filepath.Ext(filename))
	text, err := extractText(ext, content)
	if err != nil {
		return nil, []string{fmt.Sprintf("שגיאה בעיבוד הקובץ: %v", err)}, nil
	}

	now := h.now()
	fileID := fmt.Sprintf("file_%s_%s", now.Format("20060102150405"), hash[:8])

	info := api.FileInfo{
		ID:         fileID,
		Filename:   filename,
		Extension:  ext,
		Size:       len(content),
		Category:   category,
		UploadedAt: now,
		TextLength: len(text),
	}

	if err := os.WriteFile(filepath.Join(h.uploadDir, fileID+ext), content, 0644); err != nil {
		return nil, nil, fmt.Errorf("save upload: %w", err)
	}

	h.mu.Lock()
	h.files[hash] = fileRecord{info: info, hash: hash}
	h.mu.Unlock()

	return &Result{
		FileID:        fileID,
		Filename:      filename,
		ExtractedText: text,
		Category:      category,
		Info:          info,
	}, nil, nil
}

func extractText(ext string, content []byte) (string, error) {
	switch ext {
	case ".txt", ".md":
		return string(content), nil
	case ".json":
		var v any
		if err := json.Unmarshal(content, &v); err != nil {
			return "", fmt.Errorf("invalid JSON: %w", err)
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return "", err
		}
		return strings.TrimRight(buf.String(), "\n"), nil
	case ".csv":
		lines := strings.Split(string(content), "\n")
		if len(lines) > 100 {
			lines = lines[:100]
		}
		return strings.Join(lines, "\n"), nil
	default:
		return string(content), nil
	}
}

// FileInfo returns a file's metadata by id.
func (h *Handler) FileInfo(fileID string) (api.FileInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, rec := range h.files {
		if rec.info.ID == fileID {
			return rec.info, true
		}
	}
	return api.FileInfo{}, false
}

// ListFiles returns metadata for all uploads, optionally limited to one
// category.
func (h *Handler) ListFiles(category string) []api.FileInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]api.FileInfo, 0, len(h.files))
	for _, rec := range h.files {
		if category == "" || rec.info.Category == category {
			out = append(out, rec.info)
		}
	}
	return out
}

// DeleteFile removes the stored file and its record.
func (h *Handler) DeleteFile(fileID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for hash, rec := range h.files {
		if rec.info.ID == fileID {
			os.Remove(filepath.Join(h.uploadDir, fileID+rec.info.Extension))
			delete(h.files, hash)
			return true
		}
	}
	return false
}

// Stats reports upload counters.
func (h *Handler) Stats() (totalFiles, totalSize int, categories map[string]int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	categories = make(map[string]int)
	for _, rec := range h.files {
		totalFiles++
		totalSize += rec.info.Size
		categories[rec.info.Category]++
	}
	return totalFiles, totalSize, categories
}
