package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stmtfilter/internal/model"
)

// CSVFilename is the download name of the delimited export.
const CSVFilename = "filtered_statement.csv"

// Header is the CSV header row.
var Header = []string{"Date", "Description", "Amount", "Balance"}

const (
	numFields  = 4
	colDate    = 0
	colDesc    = 1
	colAmount  = 2
	colBalance = 3
)

// WriteCSV writes txns with a header row. Missing numbers are written as empty fields.
func WriteCSV(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, t := range txns {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colDate] = t.Date.String()
	row[colDesc] = t.Description
	row[colAmount] = plain(t.Amount)
	row[colBalance] = plain(t.Balance)
	return row
}

func plain(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
