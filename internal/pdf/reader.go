package pdf

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Reader loads reports into Documents: page text plus reconstructed tables
type Reader struct {
	maxFileSize int64
	maxTextSize int
	layout      LayoutOptions
	validator   *Validator
}

// NewReader creates a new PDF reader with the specified constraints
func NewReader(maxFileSize int64) *Reader {
	return &Reader{
		maxFileSize: maxFileSize,
		maxTextSize: 10 * 1024 * 1024, // 10MB text limit
		layout:      DefaultLayoutOptions(),
		validator:   NewValidator(maxFileSize),
	}
}

// WithLayout returns a copy of the reader using different table heuristics
func (r *Reader) WithLayout(opts LayoutOptions) *Reader {
	c := *r
	c.layout = opts
	return &c
}

// Load reads a source from memory or disk and extracts it
func (r *Reader) Load(ctx context.Context, src Source) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := src.Data
	if data == nil {
		if src.Path == "" {
			return nil, eris.New("pdf: source has neither data nor path")
		}
		info, err := os.Stat(src.Path)
		if err != nil {
			return nil, eris.Wrapf(err, "pdf: stat %s", src.Path)
		}
		if err := r.validator.ValidateFileInfo(src.Path, info); err != nil {
			return nil, err
		}
		data, err = os.ReadFile(src.Path)
		if err != nil {
			return nil, eris.Wrapf(err, "pdf: read %s", src.Path)
		}
	}

	name := src.Name
	if name == "" {
		name = filepath.Base(src.Path)
	}
	return r.ReadBytes(name, data)
}

// ReadBytes validates and extracts an in-memory report
func (r *Reader) ReadBytes(name string, data []byte) (doc *Document, err error) {
	info, err := r.validator.Validate(name, data)
	if err != nil {
		return nil, err
	}
	if info.Encrypted {
		zap.L().Debug("pdf: opened encrypted document with empty user password", zap.String("file", name))
	}

	// The content stream parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, eris.Errorf("pdf: extraction of %s panicked: %v", name, rec)
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, eris.Wrapf(err, "pdf: open %s", name)
	}

	doc = &Document{Name: name}
	totalText := 0
	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		p := Page{Number: pageNum}
		if totalText < r.maxTextSize {
			p.Text = r.pageText(name, page, pageNum)
			totalText += len(p.Text)
		}
		p.Tables = BuildTables(pageGlyphs(page), r.layout)
		doc.Pages = append(doc.Pages, p)
		doc.ImageCount += countImagesOnPage(page)
	}

	doc.ContentType = analyzeContentType(doc)
	if info.Structural && info.Pages != pdfReader.NumPage() {
		zap.L().Warn("pdf: page count mismatch",
			zap.String("file", name), zap.Int("structural", info.Pages), zap.Int("extracted", pdfReader.NumPage()))
	}
	zap.L().Debug("pdf: extracted",
		zap.String("file", name),
		zap.Int("pages", len(doc.Pages)),
		zap.Int("tables", doc.TableCount()),
		zap.String("content_type", doc.ContentType),
	)
	return doc, nil
}

// pageText extracts the plain text of a page, tolerating per-page failures
func (r *Reader) pageText(name string, page pdf.Page, pageNum int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Warn("pdf: page text panicked", zap.String("file", name), zap.Int("page", pageNum), zap.Any("panic", rec))
			text = ""
		}
	}()

	content, err := page.GetPlainText(nil)
	if err != nil {
		zap.L().Warn("pdf: page text failed", zap.String("file", name), zap.Int("page", pageNum), zap.Error(err))
		return ""
	}
	return content
}

// pageGlyphs converts the positioned text of a page to glyphs
func pageGlyphs(page pdf.Page) (glyphs []Glyph) {
	defer func() {
		if recover() != nil {
			glyphs = nil
		}
	}()

	content := page.Content()
	glyphs = make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, Glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	return glyphs
}

// analyzeContentType labels documents whose text could not be recovered
func analyzeContentType(doc *Document) string {
	// Minimum text length to consider content meaningful
	const minMeaningfulTextLength = 50

	textLen := 0
	for _, p := range doc.Pages {
		textLen += len(strings.TrimSpace(p.Text))
	}

	switch {
	case textLen < minMeaningfulTextLength && doc.ImageCount > 0:
		return ContentScanned
	case textLen < minMeaningfulTextLength:
		return ContentEmpty
	case doc.ImageCount > 0:
		return ContentMixed
	default:
		return ContentText
	}
}

// countImagesOnPage counts image XObjects on a page
func countImagesOnPage(page pdf.Page) (count int) {
	defer func() {
		if recover() != nil {
			count = 0
		}
	}()

	resources := page.V.Key("Resources")
	if resources.IsNull() {
		return 0
	}

	xObjects := resources.Key("XObject")
	if xObjects.IsNull() || xObjects.Kind() != pdf.Dict {
		return 0
	}

	for _, key := range xObjects.Keys() {
		obj := xObjects.Key(key)
		if obj.IsNull() {
			continue
		}
		if subtype := obj.Key("Subtype"); !subtype.IsNull() && subtype.Name() == "Image" {
			count++
		}
	}
	return count
}
