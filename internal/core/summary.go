package core

import "fmt"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
	Count  int
}

// MonthBreakdown holds income and expense totals for one calendar month.
type MonthBreakdown struct {
	Year    int
	Month   int // 1-12
	Income  Money
	Expense Money
}

// Net returns income minus expense for the month.
func (m MonthBreakdown) Net() Money {
	return m.Income.Sub(m.Expense)
}

// Period returns the bucket label, e.g. "2025-03".
func (m MonthBreakdown) Period() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// Totals is the headline income/expense/balance summary.
type Totals struct {
	Income  Money
	Expense Money
	Balance Money
	Count   int
}

// PeriodSalary aggregates the shifts that fall in one pay period.
type PeriodSalary struct {
	Shifts int
	Hours  string // decimal hours, e.g. "14.5"
	Total  Money
}

// SalarySummary splits a pay cycle's earnings into the two half-month periods.
type SalarySummary struct {
	Year    int
	Month   int
	Period1 PeriodSalary
	Period2 PeriodSalary
	Total   Money
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Notification flags a payment that is due soon.
type Notification struct {
	PaymentID    string
	Name         string
	Amount       Money
	DueDate      Date
	DaysUntilDue int
	Message      string
	Severity     Severity
}
