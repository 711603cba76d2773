package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/docmind/internal/doctree"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if enabled and available.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	path, cleanup, err := spool(r)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return p.ParseFile(path, filename)
}

// ParseFile parses a PDF already on disk, one node per non-empty page.
func (p *PDFParser) ParseFile(path, filename string) (*doctree.DocTree, error) {
	pages, err := extractPDFPages(path)
	if err != nil && p.FallbackPdftotext {
		pages, err = extractPdftotext(path)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree := &doctree.DocTree{Title: titleFor(filename), Pages: len(pages)}
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{Text: page, Page: i + 1})
	}
	return tree, nil
}

// spool copies r to a temp file because ledongthuc/pdf needs a ReadSeeker+size.
func spool(r io.Reader) (string, func(), error) {
	tmp, err := os.CreateTemp("", "docmind-pdf-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }
	_, err = io.Copy(tmp, r)
	tmp.Close()
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	return tmp.Name(), cleanup, nil
}

func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages := make([]string, reader.NumPage())
	for i := range pages {
		page := reader.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i] = text
	}
	return pages, nil
}

func extractPdftotext(path string) ([]string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	pages := strings.Split(string(out), "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}

// Fragments extracts the positioned text runs of every page, in reading
// order, with ids of the form "p<page>-<n>". It also returns the page count.
func Fragments(path string) ([]doctree.Fragment, int, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var out []doctree.Fragment
	n := reader.NumPage()
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		out = append(out, pageFragments(i, rows)...)
	}
	return out, n, nil
}

// pageFragments merges the glyph runs of each row into fragments. A gap wider
// than 1.5 em starts a new fragment; a gap wider than 0.2 em inserts a space.
func pageFragments(page int, rows pdflib.Rows) []doctree.Fragment {
	var out []doctree.Fragment
	emit := func(fr *doctree.Fragment) {
		if fr == nil {
			return
		}
		fr.Text = strings.TrimSpace(fr.Text)
		if fr.Text == "" {
			return
		}
		fr.ID = fmt.Sprintf("p%d-%d", page, len(out))
		out = append(out, *fr)
	}

	for _, row := range rows {
		var cur *doctree.Fragment
		var end float64
		for _, t := range row.Content {
			if t.S == "" {
				continue
			}
			em := max(t.FontSize, 1)
			gap := t.X - end
			if cur != nil && t.FontSize == cur.Size && gap <= 1.5*em {
				if gap > 0.2*em && !strings.HasSuffix(cur.Text, " ") && t.S != " " {
					cur.Text += " "
				}
				cur.Text += t.S
				end = t.X + t.W
				cur.W = end - cur.X
				continue
			}
			emit(cur)
			cur = &doctree.Fragment{Page: page, Text: t.S, X: t.X, Y: t.Y, W: t.W, Size: t.FontSize}
			end = t.X + t.W
		}
		emit(cur)
	}
	return out
}
