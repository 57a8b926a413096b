package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stmtfilter/internal/date"
	"github.com/cleared-dev/stmtfilter/internal/model"
)

// Columns are the canonical statement columns, in layout order.
var Columns = []string{"Date", "Description", "Amount", "Balance"}

const (
	colDate = iota
	colDesc
	colAmount
	colBalance
	numColumns
)

// DefaultDateLayouts are tried in order against the first date of a table.
// Slash dates are read month-first.
var DefaultDateLayouts = []string{
	"2006-1-2",
	"2006-1-2 15:04:05",
	time.RFC3339,
	"2006/1/2",
	"1/2/2006",
	"2.1.2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"2 January 2006",
	"January 2, 2006",
}

// Options configures the built-in parsers.
type Options struct {
	DateLayouts []string
	Log         zerolog.Logger
}

// DefaultOptions returns options with the default date layouts and logging disabled.
func DefaultOptions() Options {
	return Options{DateLayouts: DefaultDateLayouts, Log: zerolog.Nop()}
}

func (o Options) layouts() []string {
	if len(o.DateLayouts) == 0 {
		return DefaultDateLayouts
	}
	return o.DateLayouts
}

// row is one raw table row mapped onto the canonical columns.
type row struct {
	at     string // source position for messages, e.g. "row 3" or "page 2 line 7"
	fields [numColumns]string
}

// buildTransactions normalizes raw rows. The date layout is inferred from the first
// non-empty date and must fit every other non-empty date. Rows without a date are
// dropped; unparsable numbers become missing values.
func buildTransactions(rows []row, opts Options, format string) ([]model.Transaction, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	layout, err := dateLayout(rows, opts.layouts())
	if err != nil {
		return nil, err
	}

	var (
		txns     []model.Transaction
		rejected int
		missing  int
	)
	for _, r := range rows {
		raw := strings.TrimSpace(r.fields[colDate])
		if raw == "" {
			rejected++
			opts.Log.Warn().Str("at", r.at).Msg("Rejecting row without a date")
			continue
		}
		d, err := date.Parse(layout, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBadDateColumn, r.at, err)
		}

		txn := model.Transaction{
			Date:        d,
			Description: strings.TrimSpace(r.fields[colDesc]),
			Amount:      parseNumber(r.fields[colAmount]),
			Balance:     parseNumber(r.fields[colBalance]),
		}
		if n := txn.Missing(); n > 0 {
			missing += n
			opts.Log.Debug().
				Str("at", r.at).
				Str("amount", r.fields[colAmount]).
				Str("balance", r.fields[colBalance]).
				Msg("Numeric field missing or unparsable")
		}
		txns = append(txns, txn)
	}

	opts.Log.Debug().
		Str("format", format).
		Str("date_layout", layout).
		Int("rows", len(rows)).
		Int("rejected", rejected).
		Int("missing_numeric", missing).
		Msg("Extracted transactions")
	return txns, nil
}

// dateLayout picks the first layout that reads the first non-empty date.
func dateLayout(rows []row, layouts []string) (string, error) {
	for _, r := range rows {
		raw := strings.TrimSpace(r.fields[colDate])
		if raw == "" {
			continue
		}
		if layout, ok := matchLayout(raw, layouts); ok {
			return layout, nil
		}
		return "", fmt.Errorf("%w: %s: %q matches no known date format", ErrBadDateColumn, r.at, raw)
	}
	return "", fmt.Errorf("%w: no row has a date", ErrBadDateColumn)
}

func matchLayout(s string, layouts []string) (string, bool) {
	for _, layout := range layouts {
		if _, err := time.Parse(layout, s); err == nil {
			return layout, true
		}
	}
	return "", false
}

// parseNumber reads a plain decimal. Anything else is a missing value, never an error.
func parseNumber(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
