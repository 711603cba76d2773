package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dgallion1/docmind/internal/generate"
	"github.com/dgallion1/docmind/internal/parser"
	"github.com/dgallion1/docmind/internal/store"
)

const previewRunes = 500

// MindMapper produces a raw mind map payload for document text.
type MindMapper interface {
	MindMap(ctx context.Context, text string) (any, error)
}

// InputError is an upload the client must fix; it maps to a 400.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

// IsInputError reports whether err was caused by the upload itself.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// Options configures a Processor.
type Options struct {
	UploadDir            string
	MaxConcurrent        int
	PDFFallbackPdftotext bool
}

// Processor turns an uploaded file into a stored Record: save, parse,
// generate, sanitize, store.
type Processor struct {
	gen   MindMapper
	store store.Store
	jobs  *JobStore
	opts  Options
	sem   chan struct{}
	log   *slog.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

func NewProcessor(gen MindMapper, st store.Store, jobs *JobStore, opts Options, log *slog.Logger) *Processor {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if jobs == nil {
		jobs = NewJobStore(time.Hour)
	}
	return &Processor{
		gen:   gen,
		store: st,
		jobs:  jobs,
		opts:  opts,
		sem:   make(chan struct{}, opts.MaxConcurrent),
		log:   log,
		sleep: sleepCtx,
	}
}

func (p *Processor) Jobs() *JobStore { return p.jobs }

// Process runs the full upload pipeline for one file.
func (p *Processor) Process(ctx context.Context, filename string, data []byte) (*store.Record, error) {
	if !parser.IsSupportedExtension(filename) {
		return nil, &InputError{Msg: fmt.Sprintf("unsupported file type: %s (accepted: .pdf, .docx, .txt)", filename)}
	}

	id := uuid.NewString()
	ext := filepath.Ext(filename)
	job := newJob(id, filename)
	p.jobs.Put(job)
	log := p.log.With("file_id", id, "filename", filename)

	rec, err := p.process(ctx, log, job, filename, ext, data)
	if err != nil {
		job.Fail(err)
		log.Error("upload failed", "phase", job.Snapshot().Phase, "error", err)
		return nil, err
	}
	job.SetPhase(PhaseDone)
	return rec, nil
}

func (p *Processor) process(ctx context.Context, log *slog.Logger, job *Job, filename, ext string, data []byte) (*store.Record, error) {
	job.setHash(ContentHashHex(data))

	if err := os.MkdirAll(p.opts.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	saved := filepath.Join(p.opts.UploadDir, job.ID+ext)
	if err := os.WriteFile(saved, data, 0o644); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	keep := false
	defer func() {
		if !keep {
			os.Remove(saved)
		}
	}()

	job.SetPhase(PhaseParsing)
	text, pages, err := ExtractText(filename, data, p.opts.PDFFallbackPdftotext)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, &InputError{Msg: "file is empty or no text could be extracted"}
	}
	log.Info("text extracted", "runes", utf8.RuneCountInString(text), "pages", pages)

	job.SetPhase(PhaseGenerating)
	raw, err := p.generate(ctx, log, job, text)
	if err != nil {
		return nil, err
	}
	mind := generate.Sanitize(raw, log)

	rec := &store.Record{
		Success:     true,
		FileID:      job.ID,
		Filename:    filename,
		FileURL:     "/uploads/" + job.ID + ext,
		FileType:    strings.ToLower(ext),
		FullText:    text,
		TextPreview: preview(text),
		MindMap:     mind,
		Pages:       pages,
		CreatedAt:   time.Now().UTC(),
	}

	job.SetPhase(PhaseStoring)
	if err := p.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("store record: %w", err)
	}
	keep = true
	return rec, nil
}

// ExtractText returns the document text and page count. Plain text is
// passed through as is; structured formats are flattened from their parsed
// tree.
func ExtractText(filename string, data []byte, pdfFallback bool) (string, int, error) {
	if parser.Ext(filename) == ".txt" {
		return strings.ToValidUTF8(string(data), "�"), 0, nil
	}
	ps, err := parser.ForFile(filename)
	if err != nil {
		return "", 0, &InputError{Msg: err.Error()}
	}
	if pdf, ok := ps.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = pdfFallback
	}
	tree, err := ps.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return "", 0, fmt.Errorf("parse %s: %w", filename, err)
	}
	return tree.FullText(), tree.Pages, nil
}

// generate calls the model under the concurrency limit, retrying transient
// failures. A model that stays unreachable yields a tree of the document's
// first lines instead of an error.
func (p *Processor) generate(ctx context.Context, log *slog.Logger, job *Job, text string) (any, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.sem }()

	raw, err := p.retryModel(ctx, log, job, func() (any, error) { return p.gen.MindMap(ctx, text) })
	if err == nil {
		return raw, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	log.Error("mind map generation failed, using document outline", "error", err)
	return generate.FallbackTree(text), nil
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	return string([]rune(text)[:previewRunes]) + "..."
}
