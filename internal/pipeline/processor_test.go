package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docmind/internal/generate"
	"github.com/dgallion1/docmind/internal/store"
)

type fakeMapper struct {
	mu     sync.Mutex
	calls  int
	errs   []error
	result any
	block  chan struct{}
	active atomic.Int32
	peak   atomic.Int32
}

func (f *fakeMapper) MindMap(ctx context.Context, text string) (any, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	if f.result != nil {
		return f.result, nil
	}
	return generate.MockTree(text), nil
}

func newTestProcessor(t *testing.T, gen MindMapper, maxConcurrent int) (*Processor, *store.MemoryStore, string) {
	t.Helper()
	dir := t.TempDir()
	st := store.NewMemoryStore(time.Hour)
	p := NewProcessor(gen, st, nil, Options{UploadDir: dir, MaxConcurrent: maxConcurrent}, slog.Default())
	p.sleep = func(context.Context, time.Duration) error { return nil }
	return p, st, dir
}

func TestProcess_TextUpload(t *testing.T) {
	p, st, dir := newTestProcessor(t, &fakeMapper{}, 2)
	body := "研究背景\n\n方法论部分描述\n" + strings.Repeat("内容", 300)

	rec, err := p.Process(context.Background(), "Report.TXT", []byte(body))
	require.NoError(t, err)

	assert.True(t, rec.Success)
	assert.Equal(t, "Report.TXT", rec.Filename)
	assert.Equal(t, ".txt", rec.FileType)
	assert.Equal(t, "/uploads/"+rec.FileID+".TXT", rec.FileURL)
	assert.Equal(t, body, rec.FullText)
	assert.Equal(t, 503, len([]rune(rec.TextPreview)))
	assert.True(t, strings.HasSuffix(rec.TextPreview, "..."))
	assert.Contains(t, rec.MindMap, "chinese")
	assert.Contains(t, rec.MindMap, "english")

	saved, err := os.ReadFile(filepath.Join(dir, rec.FileID+".TXT"))
	require.NoError(t, err)
	assert.Equal(t, body, string(saved))

	got, err := st.Get(context.Background(), rec.FileID)
	require.NoError(t, err)
	assert.Equal(t, rec.FileID, got.FileID)

	job := p.Jobs().Get(rec.FileID).Snapshot()
	assert.Equal(t, PhaseDone, job.Phase)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, ContentHashHex([]byte(body)), job.ContentHash)
}

func TestProcess_ShortTextPreviewUnchanged(t *testing.T) {
	p, _, _ := newTestProcessor(t, &fakeMapper{}, 1)
	rec, err := p.Process(context.Background(), "a.txt", []byte("short"))
	require.NoError(t, err)
	assert.Equal(t, "short", rec.TextPreview)
}

func TestProcess_RejectsUnsupportedBeforeSaving(t *testing.T) {
	p, _, dir := newTestProcessor(t, &fakeMapper{}, 1)
	_, err := p.Process(context.Background(), "slides.pptx", []byte("x"))
	require.Error(t, err)
	assert.True(t, IsInputError(err))

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
	assert.Empty(t, p.Jobs().List())
}

func TestProcess_EmptyTextIsInputError(t *testing.T) {
	gen := &fakeMapper{}
	p, _, dir := newTestProcessor(t, gen, 1)
	_, err := p.Process(context.Background(), "blank.txt", []byte(" \n\t\n"))
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	assert.Zero(t, gen.calls)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "saved file removed after failure")
}

func TestProcess_RetriesThenSucceeds(t *testing.T) {
	gen := &fakeMapper{
		errs:   []error{&generate.RetryableError{StatusCode: 429}, &generate.RetryableError{StatusCode: 503}},
		result: map[string]any{"name": "Legacy", "children": []any{}},
	}
	p, _, _ := newTestProcessor(t, gen, 1)
	rec, err := p.Process(context.Background(), "a.txt", []byte("body"))
	require.NoError(t, err)
	assert.Equal(t, 3, gen.calls)
	// Legacy single tree is promoted to both languages.
	assert.Equal(t, "Legacy", rec.MindMap["english"].(map[string]any)["name"])
	assert.Equal(t, "Legacy", rec.MindMap["chinese"].(map[string]any)["name"])
}

func TestProcess_CancelledDuringBackoff(t *testing.T) {
	gen := &fakeMapper{errs: []error{&generate.RetryableError{StatusCode: 503}}}
	p, st, _ := newTestProcessor(t, gen, 1)
	ctx, cancel := context.WithCancel(context.Background())
	p.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := p.Process(ctx, "a.txt", []byte("body"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 0, st.Len())
}

func TestProcess_PersistentFailureFallsBackToOutline(t *testing.T) {
	gen := &fakeMapper{errs: []error{errors.New("invalid api key")}}
	p, _, _ := newTestProcessor(t, gen, 1)
	rec, err := p.Process(context.Background(), "a.txt", []byte("第一行\n第二行"))
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls, "non-retryable errors are not retried")

	zh := rec.MindMap["chinese"].(map[string]any)
	assert.Equal(t, "文档内容", zh["name"])
	assert.Len(t, zh["children"], 2)
}

func TestProcess_BoundsConcurrentGeneration(t *testing.T) {
	gen := &fakeMapper{block: make(chan struct{})}
	p, _, _ := newTestProcessor(t, gen, 2)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Process(context.Background(), "a.txt", []byte("text"))
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return gen.active.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), gen.active.Load())

	close(gen.block)
	wg.Wait()
	assert.Equal(t, int32(2), gen.peak.Load())
}
