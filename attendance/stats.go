package attendance

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARY - Justified/unjustified totals over the whole ledger
// =============================================================================

var hundred = decimal.NewFromInt(100)

const pctPrecision = 16

// Summary is the reduction of the ledger.
//
// Percentages are count/Total*100 carried to pctPrecision places; each is
// computed from its own count. An empty ledger reports 0 for both.
type Summary struct {
	Total          int
	Justified      int
	Unjustified    int
	PctJustified   decimal.Decimal
	PctUnjustified decimal.Decimal
}

// Summarize folds ledger into a Summary. Only the exact status "Justified"
// counts as justified; every other status is unjustified.
func Summarize(ledger []AttendanceRecord) Summary {
	sum := Summary{
		Total:          len(ledger),
		PctJustified:   decimal.Zero,
		PctUnjustified: decimal.Zero,
	}
	for _, rec := range ledger {
		if rec.Status == Justified {
			sum.Justified++
		}
	}
	sum.Unjustified = sum.Total - sum.Justified

	if sum.Total == 0 {
		return sum
	}
	sum.PctJustified = percentOf(sum.Justified, sum.Total)
	sum.PctUnjustified = percentOf(sum.Unjustified, sum.Total)
	return sum
}

func percentOf(count, total int) decimal.Decimal {
	return decimal.NewFromInt(int64(count)).
		Mul(hundred).
		DivRound(decimal.NewFromInt(int64(total)), pctPrecision)
}

// Statistics summarizes the current ledger.
func (r *Registry) Statistics(ctx context.Context) Summary {
	return Summarize(r.read(ctx).Attendance)
}
