// Package backend is the client side of the upload endpoint: it validates a
// file locally, posts it as multipart form data and decodes the response or
// the error detail.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgallion1/docmind/internal/parser"
)

const (
	// ValidationMessage is shown when a file type is rejected locally.
	ValidationMessage = "请上传 PDF、DOCX 或 TXT 格式的文件"
	// GenericUploadMessage is shown when the server gave no detail.
	GenericUploadMessage = "上传文件时出错，请重试"
)

// ErrUnsupportedType is returned before any network call for files whose
// extension is not .pdf, .docx or .txt.
var ErrUnsupportedType = errors.New(ValidationMessage)

// Response is the upload response body.
type Response struct {
	Success     bool   `json:"success"`
	Filename    string `json:"filename"`
	FileID      string `json:"file_id"`
	FileURL     string `json:"file_url"`
	FileType    string `json:"file_type"`
	FullText    string `json:"full_text"`
	TextPreview string `json:"text_preview"`
	MindMap     any    `json:"mindmap"`
	Pages       int    `json:"pages,omitempty"`
}

// Text returns the full text, or the preview when the full text is absent.
func (r *Response) Text() string {
	if r.FullText != "" {
		return r.FullText
	}
	return r.TextPreview
}

// UploadError carries a non-2xx response.
type UploadError struct {
	StatusCode int
	Detail     string
}

func (e *UploadError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("upload failed: status %d", e.StatusCode)
	}
	return e.Detail
}

// Message is the text to display for an upload error: the server's detail
// when there is one, the validation message for rejected files, and a
// generic message otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrUnsupportedType) {
		return ValidationMessage
	}
	var ue *UploadError
	if errors.As(err, &ue) && ue.Detail != "" {
		return ue.Detail
	}
	return GenericUploadMessage
}

// Client communicates with the docmind HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Upload posts the file under the form field "file".
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*Response, error) {
	if !parser.IsSupportedExtension(filename) {
		return nil, ErrUnsupportedType
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out Response
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Document fetches a previously processed upload.
func (c *Client) Document(ctx context.Context, fileID string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/documents/"+url.PathEscape(fileID), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	var out Response
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var payload struct {
			Detail any `json:"detail"`
		}
		ue := &UploadError{StatusCode: resp.StatusCode}
		if json.Unmarshal(body, &payload) == nil {
			if s, ok := payload.Detail.(string); ok {
				ue.Detail = s
			}
		}
		return ue
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
