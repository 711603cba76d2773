// Package viewer holds the application state of one viewer: the current
// document, its mind-map payload, the selected language and keywords, and
// the upload status. It wires node activation to the document pane.
package viewer

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docmind/internal/backend"
	"github.com/dgallion1/docmind/internal/layout"
	"github.com/dgallion1/docmind/internal/mindmap"
	"github.com/dgallion1/docmind/internal/pane"
	"github.com/dgallion1/docmind/internal/parser"
)

// Uploader sends a file to the backend.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*backend.Response, error)
}

// State is a snapshot of the controller.
type State struct {
	Document pane.Document    `json:"document"`
	Payload  mindmap.Payload  `json:"mindmap"`
	Language mindmap.Language `json:"language"`
	// Shown is the language actually rendered; empty for legacy payloads.
	Shown    mindmap.Language `json:"shown,omitempty"`
	Dual     bool             `json:"dual"`
	Keywords []string         `json:"keywords"`
	Error    string           `json:"error,omitempty"`
	Loading  bool             `json:"loading"`
}

// Options configures a Controller.
type Options struct {
	// Language is the initial tree language.
	Language mindmap.Language
	// ActiveFeedback is how long a clicked node stays active.
	ActiveFeedback time.Duration
}

// Controller is safe for concurrent use, though a session normally drives it
// from a single goroutine.
type Controller struct {
	mu       sync.Mutex
	disp     *pane.Dispatcher
	log      *slog.Logger
	feedback time.Duration

	doc      pane.Document
	payload  mindmap.Payload
	lang     mindmap.Language
	shown    mindmap.Language
	keywords []string
	errMsg   string
	loading  bool

	layout      *layout.Layout
	interaction *layout.Interaction
	onFeedback  func(layout.Feedback)
	onKeywords  func([]string)
}

func NewController(disp *pane.Dispatcher, opts Options, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	if opts.Language == "" {
		opts.Language = mindmap.DefaultLanguage
	}
	c := &Controller{disp: disp, log: log, lang: opts.Language, feedback: opts.ActiveFeedback}
	c.mu.Lock()
	c.relayoutLocked()
	c.mu.Unlock()
	disp.Mount(pane.Document{})
	return c
}

// OnFeedback registers a callback for hover/active changes of the tree.
func (c *Controller) OnFeedback(fn func(layout.Feedback)) {
	c.mu.Lock()
	c.onFeedback = fn
	it := c.interaction
	c.mu.Unlock()
	it.OnFeedback(fn)
}

// OnKeywords registers a callback for keyword selection changes.
func (c *Controller) OnKeywords(fn func([]string)) {
	c.mu.Lock()
	c.onKeywords = fn
	c.mu.Unlock()
}

// BeginUpload clears the document, mind map, keywords and error, and marks
// the viewer as loading.
func (c *Controller) BeginUpload() {
	c.mu.Lock()
	c.doc = pane.Document{}
	c.payload = mindmap.Payload{}
	c.keywords = nil
	c.errMsg = ""
	c.loading = true
	c.relayoutLocked()
	c.mu.Unlock()

	c.disp.SetKeywords(nil)
	c.disp.Mount(pane.Document{})
}

// Finish installs a successful upload response.
func (c *Controller) Finish(resp *backend.Response) {
	doc := DocumentOf(resp)
	c.mu.Lock()
	c.loading = false
	c.errMsg = ""
	c.doc = doc
	c.payload = mindmap.ParsePayload(resp.MindMap)
	c.keywords = nil
	c.relayoutLocked()
	c.mu.Unlock()

	c.disp.SetKeywords(nil)
	c.disp.Mount(doc)
	c.log.Info("document loaded", "file_id", doc.FileID, "file_type", doc.FileType, "pane", pane.Select(doc).String())
}

// Fail records an upload failure.
func (c *Controller) Fail(err error) {
	c.mu.Lock()
	c.loading = false
	c.errMsg = backend.Message(err)
	c.mu.Unlock()
	c.log.Warn("upload failed", "error", err)
}

// Upload runs a full upload through up. A rejected file type leaves the
// loaded document in place; a response without success installs nothing.
func (c *Controller) Upload(ctx context.Context, up Uploader, filename string, r io.Reader) error {
	if !parser.IsSupportedExtension(filename) {
		c.mu.Lock()
		c.errMsg = backend.ValidationMessage
		c.mu.Unlock()
		c.log.Warn("upload rejected", "filename", filename)
		return backend.ErrUnsupportedType
	}

	c.BeginUpload()
	resp, err := up.Upload(ctx, filename, r)
	if err != nil {
		c.Fail(err)
		return err
	}
	if !resp.Success {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
		c.log.Warn("upload response not successful", "filename", filename)
		return nil
	}
	c.Finish(resp)
	return nil
}

// SetLanguage switches the rendered tree. The keyword selection is kept.
func (c *Controller) SetLanguage(lang mindmap.Language) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if lang == c.lang {
		return
	}
	c.lang = lang
	c.relayoutLocked()
}

func (c *Controller) relayoutLocked() {
	if c.interaction != nil {
		c.interaction.Stop()
	}
	raw, shown := c.payload.Select(c.lang)
	c.shown = shown

	var root *mindmap.Node
	if raw != nil {
		var diag mindmap.Diagnostics
		root, diag = mindmap.Normalize(raw)
		diag.Log(c.log)
	}
	c.layout = layout.Compute(root)
	c.interaction = layout.NewInteraction(c.layout, c.feedback, c.selectKeywords)
	c.interaction.OnFeedback(c.onFeedback)
}

func (c *Controller) selectKeywords(act layout.Activation) {
	c.mu.Lock()
	c.keywords = append([]string(nil), act.Keywords...)
	cb := c.onKeywords
	c.mu.Unlock()

	c.log.Debug("node activated", "path", act.Path, "keywords", act.Keywords)
	c.disp.SetKeywords(act.Keywords)
	if cb != nil {
		cb(act.Keywords)
	}
}

// Activate handles a click on the node at path.
func (c *Controller) Activate(path string) (layout.Activation, bool) {
	c.mu.Lock()
	it := c.interaction
	c.mu.Unlock()
	return it.Activate(path)
}

func (c *Controller) Hover(path string) {
	c.mu.Lock()
	it := c.interaction
	c.mu.Unlock()
	if path == "" {
		it.Unhover()
		return
	}
	it.Hover(path)
}

// Layout returns the current tree layout.
func (c *Controller) Layout() *layout.Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout
}

// Feedback returns the tree's hover/active state.
func (c *Controller) Feedback() layout.Feedback {
	c.mu.Lock()
	it := c.interaction
	c.mu.Unlock()
	return it.Feedback()
}

// Pane returns the document pane dispatcher.
func (c *Controller) Pane() *pane.Dispatcher { return c.disp }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Document: c.doc,
		Payload:  c.payload,
		Language: c.lang,
		Shown:    c.shown,
		Dual:     c.payload.IsDual(),
		Keywords: append([]string{}, c.keywords...),
		Error:    c.errMsg,
		Loading:  c.loading,
	}
}

// Close stops timers and tears down the pane.
func (c *Controller) Close() {
	c.mu.Lock()
	it := c.interaction
	c.mu.Unlock()
	it.Stop()
	c.disp.Close()
}

// DocumentOf builds the pane document of an upload response. The full text
// is preferred; the preview stands in when it is missing.
func DocumentOf(resp *backend.Response) pane.Document {
	return pane.Document{
		FileID:   resp.FileID,
		Filename: resp.Filename,
		FileURL:  resp.FileURL,
		FileType: resp.FileType,
		Text:     resp.Text(),
		Pages:    resp.Pages,
	}
}
