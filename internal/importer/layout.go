package importer

import (
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/dslipak/pdf"
)

const (
	// lineTolerance is the baseline drift, in points, still read as the same line.
	lineTolerance = 2.0
	// cellGapFactor times the font size is the horizontal gap that starts a new cell.
	cellGapFactor = 1.0
	minCellGap    = 3.0
	// ruleTolerance is the slack, in points, when matching rectangle edges.
	ruleTolerance = 1.0
	// anchorFactor times the font size is how far an unruled cell may start from its
	// column anchor.
	anchorFactor = 2.0
)

type cell struct {
	x, end float64
	size   float64
	text   string
}

type line struct {
	y     float64
	cells []cell
}

// table is one detected transaction table. Cells are placed in columns by their x
// position against anchors, the left edges of the table's columns.
type table struct {
	lines   []line
	anchors []float64
}

// pageTables detects the transaction tables of one page. Tables drawn as ruled
// cell grids are bounded by their rectangles, so text around them is ignored. A page
// without ruled four-column rows falls back to text alignment; prev carries the
// anchors of the last table seen, for an unruled table continuing without a header.
func pageTables(c pdf.Content, prev []float64, layouts []string) []table {
	if tables := ruledTables(c.Rect, c.Text); len(tables) > 0 {
		return tables
	}
	return textTables(pageLines(c.Text), prev, layouts)
}

// band is a row of drawn cells sharing top and bottom edges, ordered left to right.
type band struct {
	top, bottom float64
	rects       []pdf.Rect
}

func near(a, b float64) bool { return math.Abs(a-b) <= ruleTolerance }

// rowBands groups rectangles into rows, top to bottom. Rectangles thinner than the
// tolerance are rules rather than cells and are skipped.
func rowBands(rects []pdf.Rect) []band {
	var bands []band
	for _, r := range rects {
		r = pdf.Rect{
			Min: pdf.Point{X: math.Min(r.Min.X, r.Max.X), Y: math.Min(r.Min.Y, r.Max.Y)},
			Max: pdf.Point{X: math.Max(r.Min.X, r.Max.X), Y: math.Max(r.Min.Y, r.Max.Y)},
		}
		if r.Max.X-r.Min.X <= ruleTolerance || r.Max.Y-r.Min.Y <= ruleTolerance {
			continue
		}
		i := slices.IndexFunc(bands, func(b band) bool { return near(b.top, r.Max.Y) && near(b.bottom, r.Min.Y) })
		if i < 0 {
			bands = append(bands, band{top: r.Max.Y, bottom: r.Min.Y})
			i = len(bands) - 1
		}
		bands[i].rects = append(bands[i].rects, r)
	}
	for _, b := range bands {
		sort.Slice(b.rects, func(i, j int) bool { return b.rects[i].Min.X < b.rects[j].Min.X })
	}
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].top > bands[j].top })
	return bands
}

// line reads the text inside each of the band's cells. Every cell yields one entry,
// empty when nothing is written in it.
func (b band) line(texts []pdf.Text) line {
	l := line{y: b.top}
	for _, r := range b.rects {
		var in []pdf.Text
		for _, t := range texts {
			if t.X >= r.Min.X && t.X < r.Max.X && t.Y > r.Min.Y && t.Y < r.Max.Y {
				in = append(in, t)
			}
		}
		sort.SliceStable(in, func(i, j int) bool { return in[i].X < in[j].X })

		parts := make([]string, 0, 1)
		for _, c := range splitCells(in) {
			parts = append(parts, c.text)
		}
		l.cells = append(l.cells, cell{x: r.Min.X, end: r.Max.X, text: strings.Join(parts, " ")})
	}
	return l
}

// ruledTables returns every vertically contiguous run of four-cell bands. The first
// band's left edges anchor the columns.
func ruledTables(rects []pdf.Rect, texts []pdf.Text) []table {
	var (
		tables []table
		cur    = -1
		bottom float64
	)
	for _, b := range rowBands(rects) {
		if len(b.rects) != numColumns {
			cur = -1
			continue
		}
		if cur < 0 || !near(bottom, b.top) {
			anchors := make([]float64, len(b.rects))
			for i, r := range b.rects {
				anchors[i] = r.Min.X
			}
			tables = append(tables, table{anchors: anchors})
			cur = len(tables) - 1
		}
		tables[cur].lines = append(tables[cur].lines, b.line(texts))
		bottom = b.bottom
	}
	return tables
}

// pageLines groups positioned glyphs into lines (top to bottom) and each line into
// cells (left to right). Glyphs sharing a position keep their content-stream order.
func pageLines(texts []pdf.Text) []line {
	glyphs := make([]pdf.Text, len(texts))
	copy(glyphs, texts)
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].Y > glyphs[j].Y })

	var lines []line
	start := 0
	for i := 1; i <= len(glyphs); i++ {
		if i < len(glyphs) && glyphs[start].Y-glyphs[i].Y <= lineTolerance {
			continue
		}
		group := glyphs[start:i]
		sort.SliceStable(group, func(a, b int) bool { return group[a].X < group[b].X })
		if cells := splitCells(group); len(cells) > 0 {
			lines = append(lines, line{y: glyphs[start].Y, cells: cells})
		}
		start = i
	}
	return lines
}

// splitCells joins glyphs sorted by x into cells, breaking on wide horizontal gaps.
func splitCells(glyphs []pdf.Text) []cell {
	var (
		cells []cell
		cur   *cell
		sb    strings.Builder
	)
	flush := func() {
		if cur == nil {
			return
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			cur.text = text
			cells = append(cells, *cur)
		}
		sb.Reset()
		cur = nil
	}

	for _, g := range glyphs {
		gap := math.Max(g.FontSize*cellGapFactor, minCellGap)
		if cur != nil && g.X-cur.end > gap {
			flush()
		}
		if cur == nil {
			if strings.TrimSpace(g.S) == "" {
				continue
			}
			cur = &cell{x: g.X, end: g.X, size: g.FontSize}
		}
		sb.WriteString(g.S)
		cur.end = math.Max(cur.end, g.X+g.W)
	}
	flush()
	return cells
}

// textTables finds tables on a page without ruled cells. A table starts at a line
// with one cell per statement column (the header, or a first row), or at a dated
// line placed against prev when it continues from an earlier page. It runs while
// lines have two or more cells, each starting at a column anchor. A table must have
// a row below its header.
func textTables(lines []line, prev []float64, layouts []string) []table {
	var (
		tables []table
		cur    = -1
	)
	for _, l := range lines {
		if cur >= 0 && aligned(l, tables[cur].anchors) {
			tables[cur].lines = append(tables[cur].lines, l)
			continue
		}
		cur = -1
		if anchors := startAnchors(l, prev, layouts); anchors != nil {
			tables = append(tables, table{lines: []line{l}, anchors: anchors})
			cur = len(tables) - 1
		}
	}
	return slices.DeleteFunc(tables, func(t table) bool {
		return len(t.lines) < 2 && !datedLine(t.lines[0], layouts)
	})
}

func startAnchors(l line, prev []float64, layouts []string) []float64 {
	if len(l.cells) == numColumns {
		anchors := make([]float64, len(l.cells))
		for i, c := range l.cells {
			anchors[i] = c.x
		}
		return anchors
	}
	if prev != nil && len(l.cells) >= 2 && datedLine(l, layouts) && aligned(l, prev) {
		return prev
	}
	return nil
}

func aligned(l line, anchors []float64) bool {
	if len(l.cells) < 2 || len(l.cells) > len(anchors) {
		return false
	}
	for _, c := range l.cells {
		tol := math.Max(c.size*anchorFactor, minCellGap)
		if !slices.ContainsFunc(anchors, func(a float64) bool { return math.Abs(c.x-a) <= tol }) {
			return false
		}
	}
	return true
}

func datedLine(l line, layouts []string) bool {
	if len(l.cells) == 0 {
		return false
	}
	_, ok := matchLayout(l.cells[0].text, layouts)
	return ok
}

// columnOf assigns a cell to the column whose anchor is the last one at or left of
// the cell's start.
func columnOf(c cell, anchors []float64) int {
	col := 0
	for i, a := range anchors {
		if c.x+c.size >= a {
			col = i
		}
	}
	return col
}

// tableRows maps a table's lines onto the canonical columns. The first line is the
// header and is skipped, unless it already reads as a date: tables that continue
// from a previous page carry no header of their own.
func tableRows(tbl table, layouts []string, at func(line int) string) []row {
	body := tbl.lines[1:]
	if datedLine(tbl.lines[0], layouts) {
		body = tbl.lines
	}

	rows := make([]row, 0, len(body))
	for i, l := range body {
		var r row
		r.at = at(len(tbl.lines) - len(body) + i + 1)
		for _, c := range l.cells {
			if c.text == "" {
				continue
			}
			col := columnOf(c, tbl.anchors)
			if r.fields[col] != "" {
				r.fields[col] += " "
			}
			r.fields[col] += c.text
		}
		rows = append(rows, r)
	}
	return rows
}
