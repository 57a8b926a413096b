package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stmtfilter/internal/date"
	"github.com/cleared-dev/stmtfilter/internal/model"
)

// PDFFilename is the download name of the paginated export.
const PDFFilename = "filtered_statement.pdf"

// Layout controls the PDF table. Lengths are in millimetres.
type Layout struct {
	TruncateAbove int    // descriptions with more characters than this are shortened
	TruncateTo    int    // characters kept before the ellipsis
	Ellipsis      string
	ColumnWidths  [4]float64
	RowHeight     float64
	TitleWidth    float64
	FontFamily    string
	FontSize      float64
	MissingMarker string // written for amounts or balances that could not be parsed
}

// DefaultLayout returns the standard statement layout.
func DefaultLayout() Layout {
	return Layout{
		TruncateAbove: 33,
		TruncateTo:    30,
		Ellipsis:      "...",
		ColumnWidths:  [4]float64{35, 70, 30, 30},
		RowHeight:     10,
		TitleWidth:    200,
		FontFamily:    "Arial",
		FontSize:      10,
		MissingMarker: "n/a",
	}
}

// Truncate shortens s to TruncateTo characters plus the ellipsis when it is longer
// than TruncateAbove characters.
func (l Layout) Truncate(s string) string {
	if utf8.RuneCountInString(s) <= l.TruncateAbove {
		return s
	}
	runes := []rune(s)
	keep := min(max(l.TruncateTo, 0), len(runes))
	return string(runes[:keep]) + l.Ellipsis
}

func (l Layout) fixed(d decimal.NullDecimal) string {
	if !d.Valid {
		return l.MissingMarker
	}
	return d.Decimal.StringFixed(2)
}

// PDFRenderer renders transactions as a titled, bordered four-column table on A4
// portrait pages. Page breaks are left to the renderer.
type PDFRenderer struct {
	layout Layout
}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer(layout Layout) *PDFRenderer {
	return &PDFRenderer{layout: layout}
}

// Render writes the PDF for txns selected by r. Identical input gives identical bytes.
func (p *PDFRenderer) Render(w io.Writer, txns []model.Transaction, r date.Range) error {
	l := p.layout

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCatalogSort(true)
	doc.SetCreationDate(r.To.Time())
	doc.SetModificationDate(r.To.Time())
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.AddPage()
	doc.SetFont(l.FontFamily, "", l.FontSize)
	doc.CellFormat(l.TitleWidth, l.RowHeight, "Filtered Statement: "+r.String(), "", 1, "C", false, 0, "")
	doc.Ln(5)

	for i, h := range Header {
		doc.CellFormat(l.ColumnWidths[i], l.RowHeight, h, "1", 0, "", false, 0, "")
	}
	doc.Ln(-1)

	for _, t := range txns {
		cells := [numFields]string{
			t.Date.String(),
			tr(l.Truncate(t.Description)),
			l.fixed(t.Amount),
			l.fixed(t.Balance),
		}
		for i, c := range cells {
			doc.CellFormat(l.ColumnWidths[i], l.RowHeight, c, "1", 0, "", false, 0, "")
		}
		doc.Ln(-1)
	}

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("rendering PDF: %w", err)
	}
	return nil
}
