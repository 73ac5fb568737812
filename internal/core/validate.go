package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// TransactionInput is a candidate transaction submitted by a client.
	TransactionInput struct {
		Type        TransactionType
		Category    string
		Amount      Money
		Description string
		Date        time.Time
	}

	// PaymentInput is a candidate payment. Status is not accepted from
	// clients: new payments always start pending.
	PaymentInput struct {
		Name    string
		Amount  Money
		DueDate Date
		Type    PaymentType
	}

	ShiftInput struct {
		Date       Date
		Hours      decimal.Decimal
		HourlyRate Money
		Bonus      *Money
		Deductions *Money
	}
)

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (s PaymentStatus) IsValid() bool {
	switch s {
	case Pending, Paid, Overdue:
		return true
	}
	return false
}

func (t PaymentType) IsValid() bool {
	switch t {
	case Recurring, Credit, Debt:
		return true
	}
	return false
}

// ParseTransactionType normalizes and checks a transaction type string.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(normalizeEnum(s))
	if !t.IsValid() {
		return "", invalid("type", "must be one of income, expense")
	}
	return t, nil
}

// ParsePaymentStatus normalizes and checks a payment status string.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	st := PaymentStatus(normalizeEnum(s))
	if !st.IsValid() {
		return "", invalid("status", "must be one of pending, paid, overdue")
	}
	return st, nil
}

// ParsePaymentType normalizes and checks a payment type string.
func ParsePaymentType(s string) (PaymentType, error) {
	t := PaymentType(normalizeEnum(s))
	if !t.IsValid() {
		return "", invalid("type", "must be one of recurring, credit, debt")
	}
	return t, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return invalid("date", "cannot be zero")
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return nil
}

// Normalize trims free text and lower-cases the type.
func (in TransactionInput) Normalize() TransactionInput {
	in.Type = TransactionType(normalizeEnum(string(in.Type)))
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// Validate checks fields in declaration order and reports the first failure.
func (in TransactionInput) Validate() error {
	if !in.Type.IsValid() {
		return invalid("type", "must be one of income, expense")
	}
	if strings.TrimSpace(in.Category) == "" {
		return invalid("category", "cannot be empty")
	}
	if err := validateAmount("amount", in.Amount); err != nil {
		return err
	}
	if err := validateText("description", in.Description); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return invalid("date", "cannot be zero")
	}
	return nil
}

func (in PaymentInput) Normalize() PaymentInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = PaymentType(normalizeEnum(string(in.Type)))
	return in
}

func (in PaymentInput) Validate() error {
	if err := validateText("name", in.Name); err != nil {
		return err
	}
	if err := validateAmount("amount", in.Amount); err != nil {
		return err
	}
	if in.DueDate.IsZero() {
		return invalid("due_date", "cannot be zero")
	}
	if !in.Type.IsValid() {
		return invalid("type", "must be one of recurring, credit, debt")
	}
	return nil
}

func (in ShiftInput) Normalize() ShiftInput {
	in.Date = DateOf(in.Date.Time)
	return in
}

func (in ShiftInput) Validate() error {
	if in.Date.IsZero() {
		return invalid("date", "cannot be zero")
	}
	if !in.Hours.IsPositive() {
		return invalid("hours", "must be greater than zero")
	}
	if in.Hours.GreaterThan(MaxShiftHours) {
		return invalid("hours", "cannot exceed 24")
	}
	if err := validateAmount("hourly_rate", in.HourlyRate); err != nil {
		return err
	}
	if err := validateAdjustment("bonus", in.Bonus); err != nil {
		return err
	}
	return validateAdjustment("deductions", in.Deductions)
}

// Validate checks a stored transaction, e.g. one replayed from a journal.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return invalid("id", "cannot be empty")
	}
	return TransactionInput{
		Type:        t.Type,
		Category:    t.Category,
		Amount:      t.Amount,
		Description: t.Description,
		Date:        t.Date,
	}.Validate()
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return invalid("id", "cannot be empty")
	}
	if err := (PaymentInput{Name: p.Name, Amount: p.Amount, DueDate: p.DueDate, Type: p.Type}).Validate(); err != nil {
		return err
	}
	if !p.Status.IsValid() {
		return invalid("status", "must be one of pending, paid, overdue")
	}
	return nil
}

func (s Shift) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return invalid("id", "cannot be empty")
	}
	return ShiftInput{
		Date:       s.Date,
		Hours:      s.Hours,
		HourlyRate: s.HourlyRate,
		Bonus:      s.Bonus,
		Deductions: s.Deductions,
	}.Validate()
}

// CanTransition reports whether a payment may move from one status to another.
// Paid is terminal; staying paid is allowed as a no-op.
func CanTransition(from, to PaymentStatus) bool {
	if from == Paid {
		return to == Paid
	}
	return to.IsValid()
}

func validateAmount(field string, m Money) error {
	if m.Cents > MaxCents {
		return invalid(field, "exceeds the maximum amount")
	}
	if err := m.Validate(); err != nil {
		return invalid(field, "must be greater than zero")
	}
	return nil
}

// validateAdjustment checks an optional bonus or deduction.
func validateAdjustment(field string, m *Money) error {
	switch {
	case m == nil:
		return nil
	case m.Cents < 0:
		return invalid(field, "cannot be negative")
	case m.Cents > MaxCents:
		return invalid(field, "exceeds the maximum amount")
	}
	return nil
}

func validateText(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return invalid(field, "cannot be empty")
	}
	if len(s) > maxTextLength {
		return invalid(field, "too long (max 200 characters)")
	}
	return nil
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
