package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dgallion1/docmind/internal/backend"
	"github.com/dgallion1/docmind/internal/highlight"
	"github.com/dgallion1/docmind/internal/mindmap"
	"github.com/dgallion1/docmind/internal/pane"
	"github.com/dgallion1/docmind/internal/render"
	"github.com/dgallion1/docmind/internal/store"
	"github.com/dgallion1/docmind/internal/viewer"
)

// layerWait bounds how long a page render waits for PDF fragments.
const layerWait = 10 * time.Second

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeHTML(w, render.String(render.Upload()))
}

// handleView renders the viewer page for a stored document. The live
// session opened by the page takes over from there.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	ctrl := s.newController(nil, nil)
	defer ctrl.Close()
	ctrl.Finish(responseOf(rec))
	s.waitForLayer(r.Context(), ctrl.Pane())

	st := ctrl.State()
	s.writeHTML(w, render.String(render.Viewer(render.ViewerPage{
		FileID:   rec.FileID,
		State:    st,
		Layout:   ctrl.Layout(),
		Feedback: ctrl.Feedback(),
		Pane:     ctrl.Pane().View(),
	})))
}

func (s *Server) writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(body))
}

// newController builds a viewer whose PDF panes read cached fragments.
func (s *Server) newController(vp pane.Viewport, onPass func(highlight.PassResult)) *viewer.Controller {
	disp := pane.NewDispatcher(pane.Deps{
		Viewport: vp,
		OpenLayer: func(doc pane.Document) *pane.Layer {
			return s.fragments.layer(doc.FileID, s.originalPath(&store.Record{FileURL: doc.FileURL}))
		},
		Highlight: highlight.Options{
			Delay:  s.cfg.HighlightDelay,
			Engine: s.engine,
			OnPass: onPass,
		},
		Log: s.log,
	})
	return viewer.NewController(disp, viewer.Options{
		Language:       mindmap.ParseLanguage(s.cfg.DefaultLanguage),
		ActiveFeedback: s.cfg.ActiveFeedback,
	}, s.log)
}

// waitForLayer blocks until a mounted PDF pane has its fragments.
func (s *Server) waitForLayer(ctx context.Context, disp *pane.Dispatcher) {
	pdf, ok := disp.Active().(*pane.PDFPane)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, layerWait)
	defer cancel()
	select {
	case <-pdf.Layer().Ready():
	case <-ctx.Done():
	}
}

func responseOf(rec *store.Record) *backend.Response {
	resp := &backend.Response{
		Success:     rec.Success,
		Filename:    rec.Filename,
		FileID:      rec.FileID,
		FileURL:     rec.FileURL,
		FileType:    rec.FileType,
		FullText:    rec.FullText,
		TextPreview: rec.TextPreview,
		Pages:       rec.Pages,
	}
	if rec.MindMap != nil {
		resp.MindMap = rec.MindMap
	}
	return resp
}
