// Package export serializes a summary record for download.
package export

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/a3tai/labreport-summarizer/internal/summary"
)

// DefaultSheet is the worksheet name used when none is configured
const DefaultSheet = "Summary"

// ContentType is the MIME type of the produced workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook builds a single-sheet workbook holding the header and value row
func Workbook(rec summary.Record, sheetName string) (*xlsx.File, error) {
	if sheetName == "" {
		sheetName = DefaultSheet
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: add sheet %q", sheetName)
	}
	addRow(sheet, rec.Header())
	addRow(sheet, rec.Row())
	return f, nil
}

// WriteXLSX writes the workbook for rec to w
func WriteXLSX(w io.Writer, rec summary.Record, sheetName string) error {
	f, err := Workbook(rec, sheetName)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write workbook")
	}
	return nil
}

// SaveXLSX writes the workbook for rec to path, creating parent directories
func SaveXLSX(path string, rec summary.Record, sheetName string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "xlsx: create %s", dir)
		}
	}
	f, err := Workbook(rec, sheetName)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
