package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload_RejectsUnsupportedWithoutNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	for _, name := range []string{"deck.pptx", "noext", "archive.pdf.zip"} {
		_, err := c.Upload(context.Background(), name, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrUnsupportedType)
		assert.Equal(t, ValidationMessage, Message(err))
	}
	assert.Zero(t, hits.Load())
}

func TestUpload_PostsMultipartAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		body, _ := io.ReadAll(f)
		assert.Equal(t, "REPORT.PDF", hdr.Filename)
		assert.Equal(t, "%PDF-1.4", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"filename":"REPORT.PDF","file_id":"id1","file_url":"/uploads/id1.PDF",
			"file_type":".pdf","full_text":"","text_preview":"preview","mindmap":{"chinese":{"name":"总览"}}}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL+"/", time.Second).Upload(context.Background(), "REPORT.PDF", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, ".pdf", resp.FileType)
	assert.Equal(t, "preview", resp.Text())
	assert.NotNil(t, resp.MindMap)
}

func TestUpload_ErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail string", http.StatusBadRequest, `{"detail":"file is empty or no text could be extracted"}`, "file is empty or no text could be extracted"},
		{"no detail", http.StatusInternalServerError, `{"error":"x"}`, GenericUploadMessage},
		{"non-string detail", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","file"]}]}`, GenericUploadMessage},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, GenericUploadMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Upload(context.Background(), "a.txt", strings.NewReader("x"))
			var ue *UploadError
			require.True(t, errors.As(err, &ue))
			assert.Equal(t, tt.status, ue.StatusCode)
			assert.Equal(t, tt.want, Message(err))
		})
	}
}

func TestMessage_TransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := c.Upload(context.Background(), "a.docx", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, GenericUploadMessage, Message(err))
	assert.Empty(t, Message(nil))
}

func TestDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents/abc" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"document not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"file_id":"abc","full_text":"body"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	doc, err := c.Document(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "body", doc.Text())

	_, err = c.Document(context.Background(), "zzz")
	assert.Equal(t, "document not found", Message(err))
}
