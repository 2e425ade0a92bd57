package pdf

import (
	"errors"
	"strings"
)

// Content type labels assigned to a loaded document
const (
	ContentText    = "text"
	ContentMixed   = "mixed"
	ContentScanned = "scanned_images"
	ContentEmpty   = "no_content"
)

var (
	// ErrNotPDF is returned for inputs without a PDF name or signature
	ErrNotPDF = errors.New("pdf: not a PDF document")
	// ErrEmpty is returned for zero-length inputs
	ErrEmpty = errors.New("pdf: empty document")
	// ErrTooLarge is returned when the input exceeds the size limit
	ErrTooLarge = errors.New("pdf: document too large")
	// ErrEncrypted is returned for password protected documents
	ErrEncrypted = errors.New("pdf: document is encrypted")
)

// Source is one uploaded report
type Source struct {
	Name string // display name, usually the file base name
	Path string // set for files read from disk
	Data []byte // set for in-memory uploads
}

// Table is a grid of cell strings; rows may be ragged
type Table [][]string

// Page is the text and the tables recovered from one page
type Page struct {
	Number int     `json:"number"`
	Text   string  `json:"text"`
	Tables []Table `json:"tables"`
}

// Document is the extracted form of a report
type Document struct {
	Name        string `json:"name"`
	Pages       []Page `json:"pages"`
	ContentType string `json:"content_type"`
	ImageCount  int    `json:"image_count"`
}

// FrontText joins the text of the first n pages. n <= 0 means every page.
func (d *Document) FrontText(n int) string {
	if n <= 0 || n > len(d.Pages) {
		n = len(d.Pages)
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.Pages[i].Text)
	}
	return b.String()
}

// TableCount is the number of tables across all pages
func (d *Document) TableCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Tables)
	}
	return n
}

// FileInfo describes a PDF found on disk
type FileInfo struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	ModTime string `json:"mod_time"`
}
