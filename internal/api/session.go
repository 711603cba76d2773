package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dgallion1/docmind/internal/highlight"
	"github.com/dgallion1/docmind/internal/layout"
	"github.com/dgallion1/docmind/internal/mindmap"
	"github.com/dgallion1/docmind/internal/pane"
	"github.com/dgallion1/docmind/internal/render"
	"github.com/dgallion1/docmind/internal/viewer"
)

// clientMessage is sent by the viewer page.
type clientMessage struct {
	Type      string `json:"type"` // activate, hover, language, zoom
	Path      string `json:"path,omitempty"`
	Language  string `json:"language,omitempty"`
	Direction string `json:"direction,omitempty"` // in, out
}

// serverMessage is sent to the viewer page.
type serverMessage struct {
	Type     string            `json:"type"` // html, styles, scroll, feedback, error
	Parts    map[string]string `json:"parts,omitempty"`
	Patches  []pane.StylePatch `json:"patches,omitempty"`
	Target   string            `json:"target,omitempty"`
	Block    string            `json:"block,omitempty"`
	Behavior string            `json:"behavior,omitempty"`
	Hovered  string            `json:"hovered,omitempty"`
	Active   string            `json:"active,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// session is one browser tab viewing one document. Client messages are
// handled one at a time under mu; highlight passes complete on their own
// goroutine and take mu before touching the connection state.
type session struct {
	mu      sync.Mutex
	writeMu sync.Mutex
	conn    *websocket.Conn
	ctrl    *viewer.Controller
	server  *Server

	scrollMu sync.Mutex
	scrolls  []serverMessage
}

// ScrollTo queues a scroll; it is sent after the markup it targets.
func (s *session) ScrollTo(target string, opts highlight.ScrollOptions) {
	s.scrollMu.Lock()
	s.scrolls = append(s.scrolls, serverMessage{Type: "scroll", Target: target, Block: opts.Block, Behavior: opts.Behavior})
	s.scrollMu.Unlock()
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess := &session{conn: conn, server: s}
	sess.ctrl = s.newController(sess, sess.onPass)
	defer sess.ctrl.Close()
	sess.ctrl.OnFeedback(func(fb layout.Feedback) {
		sess.send(serverMessage{Type: "feedback", Hovered: fb.Hovered, Active: fb.Active})
	})
	log := s.log.With("file_id", rec.FileID)

	sess.mu.Lock()
	sess.ctrl.Finish(responseOf(rec))
	sess.mu.Unlock()
	s.waitForLayer(r.Context(), sess.ctrl.Pane())

	sess.mu.Lock()
	sess.send(sess.parts(render.HeaderID, render.PaneID, render.MindMapID, render.LanguageID))
	sess.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", "error", err)
			}
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sess.send(serverMessage{Type: "error", Message: "invalid message format"})
			continue
		}
		sess.handle(msg)
	}
}

func (s *session) handle(msg clientMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.Type {
	case "activate":
		if _, ok := s.ctrl.Activate(msg.Path); !ok {
			return
		}
		// PDF emphasis arrives as style patches once the pass runs.
		if s.ctrl.Pane().Active().Kind() == pane.KindPDF {
			s.send(s.parts(render.HeaderID))
		} else {
			s.send(s.parts(render.HeaderID, render.PaneID))
		}
		s.flushScrolls()
	case "hover":
		s.ctrl.Hover(msg.Path)
	case "language":
		s.ctrl.SetLanguage(mindmap.ParseLanguage(msg.Language))
		s.send(s.parts(render.MindMapID, render.LanguageID))
	case "zoom":
		pdf, ok := s.ctrl.Pane().Active().(*pane.PDFPane)
		if !ok {
			s.send(serverMessage{Type: "error", Message: "zoom is only available for PDF documents"})
			return
		}
		if msg.Direction == "out" {
			pdf.ZoomOut()
		} else {
			pdf.ZoomIn()
		}
		pdf.Layer().TakePatches()
		s.send(s.parts(render.HeaderID, render.PaneID))
	default:
		s.send(serverMessage{Type: "error", Message: "unknown message type: " + msg.Type})
	}
}

// onPass forwards the style writes of a finished highlight pass, then any
// scroll it requested.
func (s *session) onPass(res highlight.PassResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pdf, ok := s.ctrl.Pane().Active().(*pane.PDFPane); ok {
		if patches := pdf.Layer().TakePatches(); len(patches) > 0 {
			s.send(serverMessage{Type: "styles", Patches: patches})
		}
	}
	s.send(s.parts(render.HeaderID))
	s.flushScrolls()
}

func (s *session) parts(ids ...string) serverMessage {
	st := s.ctrl.State()
	view := s.ctrl.Pane().View()
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		switch id {
		case render.HeaderID:
			out[id] = render.String(render.Header(view))
		case render.PaneID:
			out[id] = render.String(render.Pane(view))
		case render.MindMapID:
			out[id] = render.String(render.MindMap(s.ctrl.Layout(), s.ctrl.Feedback()))
		case render.LanguageID:
			out[id] = render.String(render.LanguageToggle(st))
		}
	}
	return serverMessage{Type: "html", Parts: out}
}

func (s *session) flushScrolls() {
	s.scrollMu.Lock()
	pending := s.scrolls
	s.scrolls = nil
	s.scrollMu.Unlock()
	for _, m := range pending {
		s.send(m)
	}
}

func (s *session) send(msg serverMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		s.server.log.Debug("websocket write failed", "type", msg.Type, "error", err)
	}
}
