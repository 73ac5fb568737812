// Package sheets declares the spreadsheet export ports. Adapters live in
// subpackages.
package sheets

import (
	"context"

	"bilancio/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionExporter appends a committed transaction as a spreadsheet row.
	TransactionExporter interface {
		AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// ShiftExporter appends a committed shift together with its computed total.
	ShiftExporter interface {
		AppendShift(ctx context.Context, s core.Shift, total core.Money) (rowRef string, err error)
	}
)
