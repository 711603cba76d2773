package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docmind/internal/pipeline"
	"github.com/dgallion1/docmind/internal/store"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	rec, err := s.processor.Process(r.Context(), filename, data)
	if err != nil {
		if pipeline.IsInputError(err) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, "处理文件时出错: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteDocument removes the record, the stored original and any
// cached PDF fragments.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), rec.FileID); err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	fileDeleted := false
	if p := s.originalPath(rec); p != "" {
		if err := os.Remove(p); err == nil {
			fileDeleted = true
		} else if !os.IsNotExist(err) {
			s.log.Warn("removing original failed", "file_id", rec.FileID, "error", err)
		}
	}
	s.fragments.drop(rec.FileID)

	writeJSON(w, http.StatusOK, map[string]any{
		"file_id":      rec.FileID,
		"file_deleted": fileDeleted,
	})
}

// handleUploadedFile serves a stored original by its file name.
func (s *Server) handleUploadedFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || sanitizeFilename(name) != name {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}
	p := filepath.Join(s.cfg.UploadDir, name)
	if fi, err := os.Stat(p); err != nil || fi.IsDir() {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, p)
}

// record loads the record named by the fileID URL parameter, writing a 404
// when it is unknown.
func (s *Server) record(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	id := chi.URLParam(r, "fileID")
	rec, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		jsonError(w, "failed to load document: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return rec, true
}

// originalPath is where the uploaded file of rec was saved.
func (s *Server) originalPath(rec *store.Record) string {
	if rec.FileURL == "" {
		return ""
	}
	name := path.Base(rec.FileURL)
	if sanitizeFilename(name) != name {
		return ""
	}
	return filepath.Join(s.cfg.UploadDir, name)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
