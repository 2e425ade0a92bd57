package pdf

import (
	"bytes"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// The header may be preceded by junk; readers accept it within the first KiB.
const signatureWindow = 1024

var pdfSignature = []byte("%PDF-")

// Info is what structural validation learned about a document
type Info struct {
	Pages     int
	Encrypted bool
	// Structural is false when pdfcpu could not parse the document and
	// extraction proceeds on a best-effort basis
	Structural bool
}

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// Validate checks size and signature, then reads the document structure
// with pdfcpu in relaxed mode. Structural failures other than a missing
// password are logged and tolerated so that the text extractor can still try.
func (v *Validator) Validate(name string, data []byte) (*Info, error) {
	if len(data) == 0 {
		return nil, eris.Wrapf(ErrEmpty, "%s", name)
	}
	if v.maxFileSize > 0 && int64(len(data)) > v.maxFileSize {
		return nil, eris.Wrapf(ErrTooLarge, "%s: %d bytes (max: %d bytes)", name, len(data), v.maxFileSize)
	}
	if !HasSignature(data) {
		return nil, eris.Wrapf(ErrNotPDF, "%s", name)
	}

	ctx, err := readStructure(data)
	if err != nil {
		if isPasswordError(err) {
			return nil, eris.Wrapf(ErrEncrypted, "%s", name)
		}
		zap.L().Warn("pdf: structural read failed, continuing", zap.String("file", name), zap.Error(err))
		return &Info{}, nil
	}

	if err := ctx.EnsurePageCount(); err != nil {
		zap.L().Warn("pdf: page count unavailable", zap.String("file", name), zap.Error(err))
		return &Info{Encrypted: ctx.Encrypt != nil}, nil
	}

	return &Info{
		Pages:      ctx.PageCount,
		Encrypted:  ctx.Encrypt != nil,
		Structural: true,
	}, nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return eris.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !HasPDFExtension(filePath) {
		return eris.Wrapf(ErrNotPDF, "%s", filePath)
	}

	if fileInfo.Size() == 0 {
		return eris.Wrapf(ErrEmpty, "%s", filePath)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return eris.Wrapf(ErrTooLarge, "%s: %d bytes (max: %d bytes)", filePath, fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

// readStructure parses the cross reference table and page tree
func readStructure(data []byte) (ctx *model.Context, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ctx, err = nil, eris.Errorf("pdfcpu panicked: %v", rec)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.ReadContext(bytes.NewReader(data), conf)
}

// HasSignature reports whether data carries a PDF header near its start
func HasSignature(data []byte) bool {
	head := data
	if len(head) > signatureWindow {
		head = head[:signatureWindow]
	}
	return bytes.Contains(head, pdfSignature)
}

// HasPDFExtension reports whether a file name ends in .pdf, ignoring case
func HasPDFExtension(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

func isPasswordError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "decrypt")
}
