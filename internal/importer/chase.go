package importer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/cleared-dev/stmtfilter/internal/model"
)

// ChaseParser parses Chase bank checking CSV exports, which carry their own
// header names ("Posting Date") and a fixed column order.
type ChaseParser struct {
	opts Options
}

const (
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
	chaseColBalance = 5
)

// chaseDateLayouts pins the layout: Chase always writes MM/DD/YYYY.
var chaseDateLayouts = []string{"01/02/2006"}

// NewChaseParser creates a ChaseParser. Date layouts in opts are ignored.
func NewChaseParser(opts Options) *ChaseParser {
	opts.DateLayouts = chaseDateLayouts
	return &ChaseParser{opts: opts}
}

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV and returns its transactions in file order.
func (p *ChaseParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading chase CSV: %w", ErrUnreadableDocument, err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	rows := make([]row, 0, len(records)-1)
	for i, rec := range records[1:] {
		var r row
		r.at = fmt.Sprintf("row %d", i+2)
		r.fields[colDate] = rec[chaseColDate]
		r.fields[colDesc] = rec[chaseColDesc]
		r.fields[colAmount] = rec[chaseColAmount]
		r.fields[colBalance] = rec[chaseColBalance]
		rows = append(rows, r)
	}
	return buildTransactions(rows, p.opts, p.Format())
}
