package model

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stmtfilter/internal/date"
)

// Transaction is one normalized statement line.
// Amount and Balance are invalid (Valid == false) when the source value could not be parsed.
type Transaction struct {
	Date        date.Date
	Description string
	Amount      decimal.NullDecimal // negative = money out, positive = money in
	Balance     decimal.NullDecimal
}

// Missing reports how many numeric fields of t are missing.
func (t Transaction) Missing() int {
	n := 0
	if !t.Amount.Valid {
		n++
	}
	if !t.Balance.Valid {
		n++
	}
	return n
}

// Equal reports whether t and o hold the same values. Decimals compare numerically, so
// "4.00" equals "4".
func (t Transaction) Equal(o Transaction) bool {
	return t.Date == o.Date &&
		t.Description == o.Description &&
		nullEqual(t.Amount, o.Amount) &&
		nullEqual(t.Balance, o.Balance)
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
