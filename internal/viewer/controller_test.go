package viewer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docmind/internal/backend"
	"github.com/dgallion1/docmind/internal/layout"
	"github.com/dgallion1/docmind/internal/mindmap"
	"github.com/dgallion1/docmind/internal/pane"
)

type stubUploader struct {
	resp *backend.Response
	err  error
	seen func()
}

func (s stubUploader) Upload(ctx context.Context, filename string, r io.Reader) (*backend.Response, error) {
	if s.seen != nil {
		s.seen()
	}
	return s.resp, s.err
}

func dualResponse() *backend.Response {
	return &backend.Response{
		Success:  true,
		FileID:   "f1",
		Filename: "notes.txt",
		FileURL:  "/uploads/f1.txt",
		FileType: ".txt",
		FullText: "第一章 方法论\n结果显示临床试验有效",
		MindMap: map[string]any{
			"chinese": map[string]any{
				"name": "研究",
				"children": []any{
					map[string]any{"name": "方法", "keywords": []any{"方法论"}},
					map[string]any{"name": "结果"},
				},
			},
			"english": map[string]any{"name": "Study"},
		},
	}
}

func newController(t *testing.T) *Controller {
	t.Helper()
	c := NewController(pane.NewDispatcher(pane.Deps{}), Options{}, nil)
	t.Cleanup(c.Close)
	return c
}

func TestController_InitialState(t *testing.T) {
	c := newController(t)
	st := c.State()
	assert.Equal(t, mindmap.Chinese, st.Language)
	assert.False(t, st.Loading)
	assert.Equal(t, layout.StateAwaiting, c.Layout().State)
	assert.Equal(t, pane.KindEmpty, c.Pane().View().Kind)
}

func TestController_UploadSuccess(t *testing.T) {
	c := newController(t)
	var loadingDuring bool
	up := stubUploader{resp: dualResponse(), seen: func() { loadingDuring = c.State().Loading }}

	require.NoError(t, c.Upload(context.Background(), up, "notes.txt", strings.NewReader("x")))
	assert.True(t, loadingDuring)

	st := c.State()
	assert.False(t, st.Loading)
	assert.True(t, st.Dual)
	assert.Equal(t, mindmap.Chinese, st.Shown)
	assert.Equal(t, "f1", st.Document.FileID)
	assert.Equal(t, layout.StateReady, c.Layout().State)
	assert.Equal(t, "研究", c.Layout().Boxes[0].Node.Name)
	assert.Equal(t, pane.KindText, c.Pane().View().Kind)
}

func TestController_ActivationHighlightsText(t *testing.T) {
	c := newController(t)
	c.Finish(dualResponse())

	var got []string
	c.OnKeywords(func(k []string) { got = k })

	_, ok := c.Activate("0.1")
	assert.False(t, ok, "node without keywords only gives feedback")
	assert.Empty(t, c.State().Keywords)

	act, ok := c.Activate("0.0")
	require.True(t, ok)
	assert.Equal(t, []string{"方法论"}, act.Keywords)
	assert.Equal(t, []string{"方法论"}, got)
	assert.Equal(t, []string{"方法论"}, c.State().Keywords)

	v := c.Pane().View()
	require.NotNil(t, v.Plain)
	assert.Equal(t, 1, v.Plain.Matches)
}

func TestController_LanguageFallback(t *testing.T) {
	c := newController(t)
	resp := dualResponse()
	resp.MindMap = map[string]any{"chinese": map[string]any{"name": "只有中文"}}
	c.Finish(resp)

	c.SetLanguage(mindmap.English)
	st := c.State()
	assert.Equal(t, mindmap.English, st.Language)
	assert.Equal(t, mindmap.Chinese, st.Shown)
	assert.Equal(t, "只有中文", c.Layout().Root.Name)
}

func TestController_LegacyPayloadIgnoresLanguage(t *testing.T) {
	c := newController(t)
	resp := dualResponse()
	resp.MindMap = map[string]any{"name": "Legacy"}
	c.Finish(resp)
	c.SetLanguage(mindmap.English)

	st := c.State()
	assert.False(t, st.Dual)
	assert.Empty(t, st.Shown)
	assert.Equal(t, "Legacy", c.Layout().Root.Name)
}

func TestController_FailureKeepsNothingFromBefore(t *testing.T) {
	c := newController(t)
	c.Finish(dualResponse())
	_, _ = c.Activate("0.0")

	err := c.Upload(context.Background(), stubUploader{err: &backend.UploadError{StatusCode: 400, Detail: "文件为空"}}, "b.txt", strings.NewReader(""))
	require.Error(t, err)

	st := c.State()
	assert.Equal(t, "文件为空", st.Error)
	assert.Empty(t, st.Document.FileID)
	assert.Empty(t, st.Keywords)
	assert.True(t, c.State().Payload.IsEmpty())
	assert.Equal(t, layout.StateAwaiting, c.Layout().State)
	assert.Equal(t, pane.KindEmpty, c.Pane().View().Kind)
}

func TestController_UnsuccessfulResponseInstallsNothing(t *testing.T) {
	c := newController(t)
	resp := dualResponse()
	resp.Success = false

	err := c.Upload(context.Background(), stubUploader{resp: resp}, "notes.txt", strings.NewReader("x"))
	require.NoError(t, err)

	st := c.State()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	assert.Empty(t, st.Document.FileID)
	assert.False(t, st.Dual)
	assert.True(t, st.Payload.IsEmpty())
	assert.Equal(t, layout.StateAwaiting, c.Layout().State)
	assert.Equal(t, pane.KindEmpty, c.Pane().View().Kind)
}

func TestController_RejectedTypeKeepsLoadedDocument(t *testing.T) {
	c := newController(t)
	c.Finish(dualResponse())
	_, _ = c.Activate("0.0")

	called := false
	up := stubUploader{resp: dualResponse(), seen: func() { called = true }}
	err := c.Upload(context.Background(), up, "virus.exe", strings.NewReader("MZ"))
	require.ErrorIs(t, err, backend.ErrUnsupportedType)
	assert.False(t, called, "rejected before any upload")

	st := c.State()
	assert.Equal(t, backend.ValidationMessage, st.Error)
	assert.False(t, st.Loading)
	assert.Equal(t, "f1", st.Document.FileID)
	assert.True(t, st.Dual)
	assert.Equal(t, []string{"方法论"}, st.Keywords)
	assert.Equal(t, layout.StateReady, c.Layout().State)
	assert.Equal(t, pane.KindText, c.Pane().View().Kind)
}

func TestController_GenericFailureMessage(t *testing.T) {
	c := newController(t)
	c.Fail(errors.New("connection refused"))
	assert.Equal(t, backend.GenericUploadMessage, c.State().Error)
}

func TestController_PlaceholderRootIsInvalid(t *testing.T) {
	c := newController(t)
	resp := dualResponse()
	resp.MindMap = map[string]any{"chinese": map[string]any{"children": []any{}}}
	c.Finish(resp)
	assert.Equal(t, layout.StateInvalid, c.Layout().State)
}
