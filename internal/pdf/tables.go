package pdf

import (
	"math"
	"sort"
	"strings"
)

// Glyph is one positioned text run as reported by the content stream
type Glyph struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

// LayoutOptions tune how glyph rows are cut into table cells
type LayoutOptions struct {
	RowTolerance float64 // max Y distance of glyphs on the same row
	CellGap      float64 // min horizontal gap that starts a new cell
	ColumnSlack  float64 // how far left of an anchor a cell may start
	MinColumns   int     // rows with fewer cells end a table
	MinRows      int     // blocks with fewer rows are not tables
}

// DefaultLayoutOptions suit typical 8-11pt lab report tables
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		RowTolerance: 2.0,
		CellGap:      6.0,
		ColumnSlack:  3.0,
		MinColumns:   2,
		MinRows:      2,
	}
}

type cell struct {
	text   string
	x0, x1 float64
}

type glyphRow struct {
	y      float64
	glyphs []Glyph
	cells  []cell
}

// BuildTables reconstructs grids from the glyphs of one page. Runs of
// consecutive multi-cell rows form a table.
func BuildTables(glyphs []Glyph, opts LayoutOptions) []Table {
	var (
		tables []Table
		block  []glyphRow
	)
	flush := func() {
		if len(block) > 0 && len(block) >= opts.MinRows {
			tables = append(tables, alignBlock(block, opts.ColumnSlack))
		}
		block = nil
	}

	for _, row := range groupGlyphsByRow(glyphs, opts.RowTolerance) {
		sort.SliceStable(row.glyphs, func(i, j int) bool { return row.glyphs[i].X < row.glyphs[j].X })
		row.cells = splitCells(row.glyphs, opts.CellGap)
		if len(row.cells) < opts.MinColumns {
			flush()
			continue
		}
		block = append(block, row)
	}
	flush()
	return tables
}

// groupGlyphsByRow clusters visible glyphs top to bottom by baseline
func groupGlyphsByRow(glyphs []Glyph, tolerance float64) []glyphRow {
	visible := make([]Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if strings.TrimSpace(g.S) != "" {
			visible = append(visible, g)
		}
	}
	if len(visible) == 0 {
		return nil
	}

	sort.SliceStable(visible, func(i, j int) bool { return visible[i].Y > visible[j].Y })

	var rows []glyphRow
	current := glyphRow{y: visible[0].Y, glyphs: []Glyph{visible[0]}}
	for _, g := range visible[1:] {
		if math.Abs(g.Y-current.y) <= tolerance {
			current.glyphs = append(current.glyphs, g)
			continue
		}
		rows = append(rows, current)
		current = glyphRow{y: g.Y, glyphs: []Glyph{g}}
	}
	return append(rows, current)
}

// splitCells merges X-sorted glyphs into cells separated by wide gaps
func splitCells(glyphs []Glyph, gap float64) []cell {
	if len(glyphs) == 0 {
		return nil
	}

	var (
		cells []cell
		b     strings.Builder
	)
	cur := cell{x0: glyphs[0].X, x1: glyphs[0].X + glyphs[0].W}
	b.WriteString(glyphs[0].S)

	for _, g := range glyphs[1:] {
		space := g.X - cur.x1
		if space > gap {
			cur.text = strings.TrimSpace(b.String())
			cells = append(cells, cur)
			b.Reset()
			cur = cell{x0: g.X, x1: g.X + g.W}
			b.WriteString(g.S)
			continue
		}
		if space > wordGap(g) && !strings.HasSuffix(b.String(), " ") {
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		cur.x1 = math.Max(cur.x1, g.X+g.W)
	}
	cur.text = strings.TrimSpace(b.String())
	return append(cells, cur)
}

// wordGap is the spacing above which two glyphs belong to different words
func wordGap(g Glyph) float64 {
	if g.FontSize > 0 {
		return g.FontSize * 0.2
	}
	return 1.5
}

// alignBlock anchors columns on the row with the most cells and places
// every cell of the block in the column whose anchor precedes it
func alignBlock(block []glyphRow, slack float64) Table {
	widest := block[0].cells
	for _, r := range block[1:] {
		if len(r.cells) > len(widest) {
			widest = r.cells
		}
	}
	anchors := make([]float64, len(widest))
	for i, c := range widest {
		anchors[i] = c.x0 - slack
	}

	table := make(Table, 0, len(block))
	for _, r := range block {
		row := make([]string, len(anchors))
		for _, c := range r.cells {
			col := findColumnIndex(c.x0, anchors)
			if row[col] != "" {
				row[col] += " "
			}
			row[col] += c.text
		}
		table = append(table, row)
	}
	return table
}

// findColumnIndex returns the last column whose anchor is at or left of x
func findColumnIndex(x float64, anchors []float64) int {
	for i := len(anchors) - 1; i > 0; i-- {
		if x >= anchors[i] {
			return i
		}
	}
	return 0
}
