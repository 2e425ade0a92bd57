package pdf

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/labreport-summarizer/internal/pdf/pdftest"
)

func sampleReport() []byte {
	return pdftest.Build([]pdftest.Line{
		{72, 760, "Test Report Date: 2024/03/10"},
		{72, 700, "Test Item"}, {300, 700, "Result"},
		{72, 685, "Lead (Pb)"}, {300, 685, "n.d."},
		{72, 670, "Cadmium (Cd)"}, {300, 670, "12"},
	})
}

func TestReader_ReadBytes(t *testing.T) {
	doc, err := NewReader(1 << 20).ReadBytes("report.pdf", sampleReport())
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", doc.Name)
	require.Len(t, doc.Pages, 1)
	assert.Contains(t, doc.FrontText(1), "2024/03/10")
	assert.Equal(t, ContentText, doc.ContentType)
	assert.Zero(t, doc.ImageCount)

	require.Equal(t, 1, doc.TableCount())
	assert.Equal(t, Table{
		{"Test Item", "Result"},
		{"Lead (Pb)", "n.d."},
		{"Cadmium (Cd)", "12"},
	}, doc.Pages[0].Tables[0])
}

func TestReader_RejectsBadInput(t *testing.T) {
	r := NewReader(64)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrEmpty},
		{"not a pdf", []byte("hello, world"), ErrNotPDF},
		{"too large", bytes.Repeat([]byte("x"), 65), ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.ReadBytes("x.pdf", tt.data)
			require.Error(t, err)
			assert.True(t, eris.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestReader_CorruptBodyFails(t *testing.T) {
	_, err := NewReader(1<<20).ReadBytes("broken.pdf", []byte("%PDF-1.4\nthis is not a pdf body"))
	assert.Error(t, err)
}

func TestReader_LoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.pdf")
	require.NoError(t, os.WriteFile(path, sampleReport(), 0o644))

	doc, err := NewReader(1<<20).Load(context.Background(), Source{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "disk.pdf", doc.Name)
	assert.Equal(t, 1, doc.TableCount())
}

func TestReader_LoadHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader(1<<20).Load(ctx, Source{Name: "a.pdf", Data: sampleReport()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeContentType(t *testing.T) {
	long := strings.Repeat("lead cadmium mercury ", 5)

	assert.Equal(t, ContentText, analyzeContentType(&Document{Pages: []Page{{Text: long}}}))
	assert.Equal(t, ContentMixed, analyzeContentType(&Document{Pages: []Page{{Text: long}}, ImageCount: 1}))
	assert.Equal(t, ContentScanned, analyzeContentType(&Document{Pages: []Page{{Text: " "}}, ImageCount: 3}))
	assert.Equal(t, ContentEmpty, analyzeContentType(&Document{Pages: []Page{{}}}))
}
