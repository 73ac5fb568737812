// Package services provides the derived figures computed from stored records:
// totals, category and monthly breakdowns, salary periods and due-payment
// notifications.
//
// This file holds the aggregation functions. They are pure: the same input
// slice always yields the same result and nothing is cached.
package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

var (
	maxCentsDecimal = decimal.NewFromInt(math.MaxInt64)
	minCentsDecimal = decimal.NewFromInt(math.MinInt64)
)

// TotalByKind sums the amounts of the transactions of the given kind.
func TotalByKind(txs []core.Transaction, kind core.TransactionType) core.Money {
	var total core.Money
	for _, tx := range txs {
		if tx.Type == kind {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// Balance returns total income minus total expense. It may be negative.
func Balance(txs []core.Transaction) core.Money {
	return TotalByKind(txs, core.Income).Sub(TotalByKind(txs, core.Expense))
}

// Summarize computes the headline totals in a single pass.
func Summarize(txs []core.Transaction) core.Totals {
	var t core.Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	t.Count = len(txs)
	return t
}

// ShiftTotal is hours × hourly rate, rounded to the cent half away from
// zero, plus the bonus minus the deductions. Absent adjustments count as 0.
// A product outside int64 saturates instead of wrapping; validated shifts
// never get there.
func ShiftTotal(s core.Shift) core.Money {
	product := s.Hours.Mul(s.HourlyRate.Decimal()).Round(2).Shift(2)
	var base int64
	switch {
	case product.GreaterThan(maxCentsDecimal):
		base = math.MaxInt64
	case product.LessThan(minCentsDecimal):
		base = math.MinInt64
	default:
		base = product.IntPart()
	}
	return core.Money{Cents: base}.
		Add(core.ValueOr(s.Bonus)).
		Sub(core.ValueOr(s.Deductions))
}

// SalaryForPeriod sums ShiftTotal over the given shifts.
func SalaryForPeriod(shifts []core.Shift) core.Money {
	var total core.Money
	for _, s := range shifts {
		total = total.Add(ShiftTotal(s))
	}
	return total
}

// CategoryOrder selects how CategoryBreakdown sorts its result.
type CategoryOrder string

const (
	// SortFirstSeen keeps categories in the order they first appear.
	SortFirstSeen   CategoryOrder = ""
	SortByTotalDesc CategoryOrder = "total"
	SortByName      CategoryOrder = "name"
)

// ParseCategoryOrder maps a query value to a CategoryOrder. Unknown values
// are rejected so typos do not silently fall back to first-seen order.
func ParseCategoryOrder(s string) (CategoryOrder, error) {
	switch o := CategoryOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortFirstSeen, SortByTotalDesc, SortByName:
		return o, nil
	case "first_seen":
		return SortFirstSeen, nil
	default:
		return "", &core.ValidationError{Field: "sort", Reason: fmt.Sprintf("unknown order %q", s)}
	}
}

// categoryLess holds the comparison used by each non-default order.
var categoryLess = map[CategoryOrder]func(a, b core.CategoryAmount) bool{
	SortByTotalDesc: func(a, b core.CategoryAmount) bool {
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Name < b.Name
	},
	SortByName: func(a, b core.CategoryAmount) bool {
		return a.Name < b.Name
	},
}

// CategoryBreakdown groups the transactions of one kind by category. Every
// category that has at least one such transaction appears exactly once.
func CategoryBreakdown(txs []core.Transaction, kind core.TransactionType, order CategoryOrder) []core.CategoryAmount {
	index := make(map[string]int)
	var out []core.CategoryAmount
	for _, tx := range txs {
		if tx.Type != kind {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, core.CategoryAmount{Name: tx.Category})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
		out[i].Count++
	}

	if less, ok := categoryLess[order]; ok {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

// MonthlyBreakdown buckets transactions by the calendar month of their
// date, oldest month first.
func MonthlyBreakdown(txs []core.Transaction) []core.MonthBreakdown {
	type key struct{ year, month int }
	buckets := make(map[key]*core.MonthBreakdown)
	for _, tx := range txs {
		k := key{tx.Date.Year(), int(tx.Date.Month())}
		b, ok := buckets[k]
		if !ok {
			b = &core.MonthBreakdown{Year: k.year, Month: k.month}
			buckets[k] = b
		}
		switch tx.Type {
		case core.Income:
			b.Income = b.Income.Add(tx.Amount)
		case core.Expense:
			b.Expense = b.Expense.Add(tx.Amount)
		}
	}

	out := make([]core.MonthBreakdown, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}
