package importer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dslipak/pdf"

	"github.com/cleared-dev/stmtfilter/internal/model"
)

// PDFParser reads statements laid out as tables in a PDF. Every page is scanned and
// the body rows of all detected tables are concatenated in page order, assuming the
// Date, Description, Amount, Balance column order. Tables drawn as ruled cells are
// bounded by their borders; unruled tables are found by text alignment.
type PDFParser struct {
	opts Options
}

// NewPDFParser creates a PDFParser.
func NewPDFParser(opts Options) *PDFParser { return &PDFParser{opts: opts} }

// Format returns the parser name.
func (p *PDFParser) Format() string { return "pdf" }

// Parse reads the whole document and returns its transactions.
func (p *PDFParser) Parse(r io.Reader) ([]model.Transaction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading upload: %w", ErrUnreadableDocument, err)
	}

	pages, err := readPages(data)
	if err != nil {
		return nil, err
	}

	var (
		rows  []row
		found int
		prev  []float64
	)
	for i, content := range pages {
		page := i + 1
		tables := pageTables(content, prev, p.opts.layouts())
		p.opts.Log.Debug().Int("page", page).Int("tables", len(tables)).Msg("Scanned page")
		for t, tbl := range tables {
			at := func(l int) string { return fmt.Sprintf("page %d table %d line %d", page, t+1, l) }
			rows = append(rows, tableRows(tbl, p.opts.layouts(), at)...)
			prev = tbl.anchors
		}
		found += len(tables)
	}
	if found == 0 {
		return nil, fmt.Errorf("%w: scanned %d page(s)", ErrNoTable, len(pages))
	}
	return buildTransactions(rows, p.opts, p.Format())
}

// readPages returns the positioned text and drawn rectangles of every page. The pdf package panics on some
// malformed content streams; those surface as ErrUnreadableDocument.
func readPages(data []byte) (pages []pdf.Content, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrUnreadableDocument, rec)
		}
	}()

	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: opening PDF: %w", ErrUnreadableDocument, err)
	}

	n := rd.NumPage()
	pages = make([]pdf.Content, 0, n)
	for i := 1; i <= n; i++ {
		page := rd.Page(i)
		if page.V.IsNull() {
			pages = append(pages, pdf.Content{})
			continue
		}
		pages = append(pages, page.Content())
	}
	return pages, nil
}
