package services

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

func tx(kind core.TransactionType, category string, cents int64, date time.Time) core.Transaction {
	return core.Transaction{
		ID:          category + date.Format("20060102"),
		Type:        kind,
		Category:    category,
		Amount:      core.Money{Cents: cents},
		Description: "test",
		Date:        date,
	}
}

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 10, 0, 0, 0, time.UTC)
}

func TestBalance(t *testing.T) {
	tests := []struct {
		name string
		txs  []core.Transaction
		want int64
	}{
		{name: "empty", txs: nil, want: 0},
		{
			name: "income only",
			txs:  []core.Transaction{tx(core.Income, "Salary", 150000, day(2025, 1, 1))},
			want: 150000,
		},
		{
			name: "negative balance",
			txs: []core.Transaction{
				tx(core.Income, "Salary", 1000, day(2025, 1, 1)),
				tx(core.Expense, "Rent", 2500, day(2025, 1, 2)),
			},
			want: -1500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Balance(tt.txs)
			if got.Cents != tt.want {
				t.Errorf("Balance() = %d, want %d", got.Cents, tt.want)
			}
			want := TotalByKind(tt.txs, core.Income).Sub(TotalByKind(tt.txs, core.Expense))
			if got != want {
				t.Errorf("Balance() = %d, income-expense = %d", got.Cents, want.Cents)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Income, "Salary", 5000, day(2025, 1, 1)),
		tx(core.Expense, "Food", 1200, day(2025, 1, 2)),
		tx(core.Expense, "Food", 300, day(2025, 1, 3)),
	}
	got := Summarize(txs)
	if got.Income.Cents != 5000 || got.Expense.Cents != 1500 || got.Balance.Cents != 3500 || got.Count != 3 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if empty := Summarize(nil); empty != (core.Totals{}) {
		t.Fatalf("empty totals should be zero, got %+v", empty)
	}
}

func TestTotalsAtTheAmountCeiling(t *testing.T) {
	var txs []core.Transaction
	for i := 0; i < 1000; i++ {
		txs = append(txs, tx(core.Income, "Salary", core.MaxCents, day(2025, 1, 1)))
	}
	txs = append(txs, tx(core.Expense, "Rent", 1, day(2025, 1, 2)))

	income := TotalByKind(txs, core.Income)
	if income.Cents != 1000*core.MaxCents {
		t.Fatalf("income = %d, want %d", income.Cents, 1000*core.MaxCents)
	}
	got := Summarize(txs)
	if got.Balance.Cents != income.Cents-1 || Balance(txs) != got.Balance {
		t.Fatalf("balance = %d, want %d", got.Balance.Cents, income.Cents-1)
	}
}

func TestShiftTotal(t *testing.T) {
	tests := []struct {
		name  string
		shift core.Shift
		want  int64
	}{
		{
			name:  "hours and bonus",
			shift: core.Shift{Hours: decimal.NewFromInt(8), HourlyRate: core.Money{Cents: 800}, Bonus: core.MoneyPtr(core.Money{Cents: 2000})},
			want:  8400,
		},
		{
			name:  "hours and deductions",
			shift: core.Shift{Hours: decimal.NewFromInt(6), HourlyRate: core.Money{Cents: 800}, Deductions: core.MoneyPtr(core.Money{Cents: 300})},
			want:  4500,
		},
		{
			name:  "fractional hours",
			shift: core.Shift{Hours: decimal.RequireFromString("7.5"), HourlyRate: core.Money{Cents: 1234}},
			want:  9255,
		},
		{
			name:  "rounds half away from zero",
			shift: core.Shift{Hours: decimal.RequireFromString("0.5"), HourlyRate: core.Money{Cents: 1}},
			want:  1,
		},
		{
			name:  "explicit zero bonus equals absent bonus",
			shift: core.Shift{Hours: decimal.NewFromInt(1), HourlyRate: core.Money{Cents: 1000}, Bonus: core.MoneyPtr(core.Money{})},
			want:  1000,
		},
		{
			name:  "deductions can exceed earnings",
			shift: core.Shift{Hours: decimal.NewFromInt(1), HourlyRate: core.Money{Cents: 100}, Deductions: core.MoneyPtr(core.Money{Cents: 500})},
			want:  -400,
		},
		{
			name:  "longest shift at the highest rate is exact",
			shift: core.Shift{Hours: core.MaxShiftHours, HourlyRate: core.Money{Cents: core.MaxCents}, Bonus: core.MoneyPtr(core.Money{Cents: core.MaxCents})},
			want:  25 * core.MaxCents,
		},
		{
			name:  "product beyond int64 saturates",
			shift: core.Shift{Hours: decimal.RequireFromString("1e20"), HourlyRate: core.Money{Cents: 100}},
			want:  math.MaxInt64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShiftTotal(tt.shift); got.Cents != tt.want {
				t.Errorf("ShiftTotal() = %d, want %d", got.Cents, tt.want)
			}
		})
	}
}

func TestSalaryForPeriod(t *testing.T) {
	shifts := []core.Shift{
		{Hours: decimal.NewFromInt(8), HourlyRate: core.Money{Cents: 800}, Bonus: core.MoneyPtr(core.Money{Cents: 2000})},
		{Hours: decimal.NewFromInt(6), HourlyRate: core.Money{Cents: 800}, Deductions: core.MoneyPtr(core.Money{Cents: 300})},
	}
	if got := SalaryForPeriod(shifts); got.Cents != 12900 {
		t.Fatalf("SalaryForPeriod() = %d, want 12900", got.Cents)
	}
	if got := SalaryForPeriod(nil); !got.IsZero() {
		t.Fatalf("empty salary should be zero, got %d", got.Cents)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, "Rent", 80000, day(2025, 1, 1)),
		tx(core.Expense, "Food", 2000, day(2025, 1, 2)),
		tx(core.Income, "Salary", 150000, day(2025, 1, 3)),
		tx(core.Expense, "Food", 3000, day(2025, 1, 4)),
		tx(core.Expense, "Bills", 9000, day(2025, 1, 5)),
	}

	tests := []struct {
		name  string
		order CategoryOrder
		want  []string
	}{
		{name: "first seen", order: SortFirstSeen, want: []string{"Rent", "Food", "Bills"}},
		{name: "by total", order: SortByTotalDesc, want: []string{"Rent", "Bills", "Food"}},
		{name: "by name", order: SortByName, want: []string{"Bills", "Food", "Rent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategoryBreakdown(txs, core.Expense, tt.order)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d categories, want %d", len(got), len(tt.want))
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("position %d = %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}

	food := CategoryBreakdown(txs, core.Expense, SortByName)[1]
	if food.Amount.Cents != 5000 || food.Count != 2 {
		t.Fatalf("unexpected food bucket: %+v", food)
	}
	if got := CategoryBreakdown(nil, core.Income, SortFirstSeen); len(got) != 0 {
		t.Fatalf("expected empty breakdown, got %+v", got)
	}
}

func TestParseCategoryOrder(t *testing.T) {
	for in, want := range map[string]CategoryOrder{"": SortFirstSeen, "Total": SortByTotalDesc, "name": SortByName, "first_seen": SortFirstSeen} {
		got, err := ParseCategoryOrder(in)
		if err != nil || got != want {
			t.Errorf("ParseCategoryOrder(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseCategoryOrder("random"); err == nil {
		t.Error("expected error for unknown order")
	}
}

func TestMonthlyBreakdown(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, "Food", 500, day(2025, 2, 10)),
		tx(core.Income, "Salary", 1000, day(2024, 12, 31)),
		tx(core.Income, "Salary", 2000, day(2025, 2, 1)),
		tx(core.Expense, "Rent", 700, day(2024, 12, 1)),
	}
	got := MonthlyBreakdown(txs)
	if len(got) != 2 {
		t.Fatalf("expected 2 months, got %+v", got)
	}
	if got[0].Period() != "2024-12" || got[0].Income.Cents != 1000 || got[0].Expense.Cents != 700 {
		t.Errorf("unexpected first bucket: %+v", got[0])
	}
	if got[1].Period() != "2025-02" || got[1].Net().Cents != 1500 {
		t.Errorf("unexpected second bucket: %+v", got[1])
	}
	if len(MonthlyBreakdown(nil)) != 0 {
		t.Error("expected no buckets for empty input")
	}
}
