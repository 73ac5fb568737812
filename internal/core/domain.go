package core

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Pending PaymentStatus = "pending"
	Paid    PaymentStatus = "paid"
	Overdue PaymentStatus = "overdue"
)

const (
	Recurring PaymentType = "recurring"
	Credit    PaymentType = "credit"
	Debt      PaymentType = "debt"
)

// maxTextLength bounds free-text fields (descriptions, payment names).
const maxTextLength = 200

type (
	TransactionType string
	PaymentStatus   string
	PaymentType     string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string
		Type        TransactionType
		Category    string
		Amount      Money
		Description string
		Date        time.Time
	}

	Payment struct {
		ID      string
		Name    string
		Amount  Money
		DueDate Date
		Status  PaymentStatus
		Type    PaymentType
	}

	Shift struct {
		ID         string
		Date       Date
		Hours      decimal.Decimal
		HourlyRate Money
		Bonus      *Money // nil when no bonus was recorded
		Deductions *Money // nil when no deductions were recorded
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return Date{Time: t}, nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// DaysUntil returns the number of whole calendar days from d to other.
// Negative when other is before d.
func (d Date) DaysUntil(other Date) int {
	from := NewDate(d.Year(), d.Month(), d.Day())
	to := NewDate(other.Year(), other.Month(), other.Day())
	return int(to.Sub(from.Time).Hours() / 24)
}

// Add returns the sum of two amounts, saturating at the int64 limits.
func (m Money) Add(o Money) Money {
	switch {
	case o.Cents > 0 && m.Cents > math.MaxInt64-o.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents < 0 && m.Cents < math.MinInt64-o.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m minus o, saturating at the int64 limits.
func (m Money) Sub(o Money) Money {
	switch {
	case o.Cents < 0 && m.Cents > math.MaxInt64+o.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents > 0 && m.Cents < math.MinInt64+o.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: m.Cents - o.Cents}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// MoneyPtr returns a pointer to a copy of m, for optional shift fields.
func MoneyPtr(m Money) *Money {
	return &m
}

// ValueOr returns the pointed-to amount, or zero when absent.
func ValueOr(m *Money) Money {
	if m == nil {
		return Money{}
	}
	return *m
}

// Clone returns a deep copy of the shift so optional fields are not shared.
func (s Shift) Clone() Shift {
	if s.Bonus != nil {
		s.Bonus = MoneyPtr(*s.Bonus)
	}
	if s.Deductions != nil {
		s.Deductions = MoneyPtr(*s.Deductions)
	}
	return s
}
