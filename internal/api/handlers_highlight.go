package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dgallion1/docmind/internal/match"
	"github.com/dgallion1/docmind/internal/store"
)

type highlightRequest struct {
	Keywords []string `json:"keywords"`
	// Text is matched line by line when FileID is empty.
	Text   string `json:"text"`
	FileID string `json:"file_id"`
}

type highlightResponse struct {
	Substrate string         `json:"substrate"`
	Matches   []match.Result `json:"matches"`
	Summary   match.Summary  `json:"summary"`
}

// handleHighlight runs the keyword match engine against posted text or a
// stored document and returns the matched units.
func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	corpus := match.Corpus{Substrate: match.Plain, Units: match.Lines(req.Text)}
	if req.FileID != "" {
		rec, err := s.store.Get(r.Context(), req.FileID)
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		if err != nil {
			jsonError(w, "failed to load document: "+err.Error(), http.StatusInternalServerError)
			return
		}
		corpus, err = s.corpusFor(rec)
		if err != nil {
			jsonError(w, "failed to read document text: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	results := s.engine.FindMatches(req.Keywords, corpus)
	matched := make([]match.Result, 0)
	for _, res := range results {
		if res.Matched {
			matched = append(matched, res)
		}
	}
	writeJSON(w, http.StatusOK, highlightResponse{
		Substrate: corpus.Substrate.String(),
		Matches:   matched,
		Summary:   match.Summarize(req.Keywords, results),
	})
}

// corpusFor matches PDFs against their text-layer fragments and everything
// else against the stored full text.
func (s *Server) corpusFor(rec *store.Record) (match.Corpus, error) {
	if strings.EqualFold(rec.FileType, ".pdf") {
		if p := s.originalPath(rec); p != "" {
			frags, _, err := s.fragments.load(rec.FileID, p)
			if err != nil {
				return match.Corpus{}, err
			}
			units := make([]match.Unit, len(frags))
			for i, f := range frags {
				units[i] = match.Unit{ID: f.ID, Page: f.Page, Text: f.Text}
			}
			return match.Corpus{Substrate: match.PDF, Units: units}, nil
		}
	}
	text := rec.FullText
	if text == "" {
		text = rec.TextPreview
	}
	return match.Corpus{Substrate: match.Plain, Units: match.Lines(text)}, nil
}
