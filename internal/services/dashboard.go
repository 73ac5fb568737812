package services

import (
	"bilancio/internal/core"
	"bilancio/internal/store"
)

// RecordReader is the read side of the record store.
type RecordReader interface {
	Snapshot() store.Snapshot
}

// Overview bundles every derived view computed from one snapshot.
type Overview struct {
	Reference         core.Date
	Totals            core.Totals
	Salary            core.SalarySummary
	Notifications     []core.Notification
	IncomeCategories  []core.CategoryAmount
	ExpenseCategories []core.CategoryAmount
	Monthly           []core.MonthBreakdown
}

// DashboardService answers aggregate queries. Each call reads a fresh
// snapshot; nothing is cached between calls.
type DashboardService struct {
	records  RecordReader
	notifier NotifierOptions
}

func NewDashboardService(records RecordReader, opts NotifierOptions) *DashboardService {
	return &DashboardService{records: records, notifier: opts.withDefaults()}
}

func (d *DashboardService) Totals() core.Totals {
	return Summarize(d.records.Snapshot().Transactions)
}

func (d *DashboardService) SalaryPeriods(ref core.Date) core.SalarySummary {
	return SalaryPeriods(d.records.Snapshot().Shifts, ref)
}

func (d *DashboardService) Notifications(ref core.Date) []core.Notification {
	return DueNotificationsWith(d.records.Snapshot().Payments, ref, d.notifier)
}

func (d *DashboardService) CategoryBreakdown(kind core.TransactionType, order CategoryOrder) []core.CategoryAmount {
	return CategoryBreakdown(d.records.Snapshot().Transactions, kind, order)
}

func (d *DashboardService) MonthlyBreakdown() []core.MonthBreakdown {
	return MonthlyBreakdown(d.records.Snapshot().Transactions)
}

// Overview computes all views from a single snapshot, so they agree with
// each other even while records are being added.
func (d *DashboardService) Overview(ref core.Date) Overview {
	snap := d.records.Snapshot()
	return Overview{
		Reference:         ref,
		Totals:            Summarize(snap.Transactions),
		Salary:            SalaryPeriods(snap.Shifts, ref),
		Notifications:     DueNotificationsWith(snap.Payments, ref, d.notifier),
		IncomeCategories:  CategoryBreakdown(snap.Transactions, core.Income, SortByTotalDesc),
		ExpenseCategories: CategoryBreakdown(snap.Transactions, core.Expense, SortByTotalDesc),
		Monthly:           MonthlyBreakdown(snap.Transactions),
	}
}
