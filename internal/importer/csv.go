package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/stmtfilter/internal/model"
)

// CSVParser reads delimited statements whose header names the Date, Description,
// Amount and Balance columns. Header names match case-insensitively; other columns
// are ignored.
type CSVParser struct {
	opts Options
}

// NewCSVParser creates a CSVParser.
func NewCSVParser(opts Options) *CSVParser { return &CSVParser{opts: opts} }

// Format returns the parser name.
func (p *CSVParser) Format() string { return "csv" }

// Parse reads a CSV statement and returns its transactions in file order.
func (p *CSVParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV: %w", ErrUnreadableDocument, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty CSV", ErrUnreadableDocument)
	}

	index, err := columnIndex(records[0])
	if err != nil {
		return nil, err
	}

	rows := make([]row, 0, len(records)-1)
	for i, rec := range records[1:] {
		var r row
		r.at = fmt.Sprintf("row %d", i+2)
		for col, idx := range index {
			r.fields[col] = rec[idx]
		}
		rows = append(rows, r)
	}
	return buildTransactions(rows, p.opts, p.Format())
}

// columnIndex maps each canonical column to its position in header.
func columnIndex(header []string) ([numColumns]int, error) {
	var index [numColumns]int
	pos := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}

	var missing []string
	for col, name := range Columns {
		i, ok := pos[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		index[col] = i
	}
	if len(missing) > 0 {
		return index, fmt.Errorf("%w: missing %s (header is %s)",
			ErrSchemaMismatch, strings.Join(missing, ", "), strings.Join(header, ","))
	}
	return index, nil
}
