package filter

import (
	"github.com/cleared-dev/stmtfilter/internal/date"
	"github.com/cleared-dev/stmtfilter/internal/model"
)

// Apply returns the transactions dated within r, bounds included, in their original order.
// The input slice is not modified.
func Apply(txns []model.Transaction, r date.Range) []model.Transaction {
	var out []model.Transaction
	for _, t := range txns {
		if r.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}
