package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/dgallion1/docbind/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser imports PDF text page by page. When the Go reader yields no
// text and FallbackPdftotext is set, pdftotext is tried instead.
type PDFParser struct {
	FallbackPdftotext bool
}

// Parse emits the paragraphs of each page with a page break between pages.
// PDF text carries no reliable heading structure, so no headings are emitted.
func (p *PDFParser) Parse(r io.Reader, filename string) ([]doctree.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	pages, err := readPDFPages(data)
	if (err != nil || blank(pages)) && p.FallbackPdftotext {
		if fallback, ferr := pdftotextPages(data); ferr == nil {
			pages, err = fallback, nil
		} else if err == nil {
			err = ferr
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return pageNodes(pages), nil
}

func pageNodes(pages []string) []doctree.Node {
	nodes := []doctree.Node{}
	for _, page := range pages {
		paras := paragraphs(page)
		if len(paras) == 0 {
			continue
		}
		if len(nodes) > 0 {
			nodes = append(nodes, doctree.PageBreak{})
		}
		for _, para := range paras {
			nodes = append(nodes, doctree.Text(para))
		}
	}
	return nodes
}

// readPDFPages returns the plain text of every page. Pages that fail to
// decode are kept as empty strings so page positions stay stable.
func readPDFPages(data []byte) ([]string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// pdftotextPages pipes the document through pdftotext, which separates
// pages with form feeds.
func pdftotextPages(data []byte) ([]string, error) {
	cmd := exec.Command("pdftotext", "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(data)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("pdftotext: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(string(out), "\f"), nil
}

func blank(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}
