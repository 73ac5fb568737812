package http

import (
	"time"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

// Response shapes. Amounts carry exact cents plus a display string.

type transactionView struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

type paymentView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	Type        string `json:"type"`
}

type shiftView struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	Hours           string `json:"hours"`
	HourlyRateCents int64  `json:"hourly_rate_cents"`
	BonusCents      *int64 `json:"bonus_cents"`
	DeductionsCents *int64 `json:"deductions_cents"`
	TotalCents      int64  `json:"total_cents"`
	Total           string `json:"total"`
}

type totalsView struct {
	IncomeCents  int64  `json:"income_cents"`
	Income       string `json:"income"`
	ExpenseCents int64  `json:"expense_cents"`
	Expense      string `json:"expense"`
	BalanceCents int64  `json:"balance_cents"`
	Balance      string `json:"balance"`
	Count        int    `json:"count"`
}

type periodView struct {
	Shifts     int    `json:"shifts"`
	Hours      string `json:"hours"`
	TotalCents int64  `json:"total_cents"`
	Total      string `json:"total"`
}

type salaryView struct {
	Year       int        `json:"year"`
	Month      int        `json:"month"`
	Period1    periodView `json:"period1"`
	Period2    periodView `json:"period2"`
	TotalCents int64      `json:"total_cents"`
	Total      string     `json:"total"`
}

type notificationView struct {
	PaymentID    string `json:"payment_id"`
	Name         string `json:"name"`
	AmountCents  int64  `json:"amount_cents"`
	Amount       string `json:"amount"`
	DueDate      string `json:"due_date"`
	DaysUntilDue int    `json:"days_until_due"`
	Message      string `json:"message"`
	Severity     string `json:"severity"`
}

type categoryView struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Count       int    `json:"count"`
}

type monthView struct {
	Period       string `json:"period"`
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
	NetCents     int64  `json:"net_cents"`
	Net          string `json:"net"`
}

type overviewView struct {
	Date              string             `json:"date"`
	Totals            totalsView         `json:"totals"`
	Salary            salaryView         `json:"salary"`
	Notifications     []notificationView `json:"notifications"`
	IncomeCategories  []categoryView     `json:"income_categories"`
	ExpenseCategories []categoryView     `json:"expense_categories"`
	Monthly           []monthView        `json:"monthly"`
}

func newTransactionView(tx core.Transaction) transactionView {
	return transactionView{
		ID:          tx.ID,
		Type:        string(tx.Type),
		Category:    tx.Category,
		AmountCents: tx.Amount.Cents,
		Amount:      core.FormatEuros(tx.Amount.Cents),
		Description: tx.Description,
		Date:        tx.Date,
	}
}

func newPaymentView(p core.Payment) paymentView {
	return paymentView{
		ID:          p.ID,
		Name:        p.Name,
		AmountCents: p.Amount.Cents,
		Amount:      core.FormatEuros(p.Amount.Cents),
		DueDate:     p.DueDate.String(),
		Status:      string(p.Status),
		Type:        string(p.Type),
	}
}

func newShiftView(s core.Shift) shiftView {
	total := services.ShiftTotal(s)
	return shiftView{
		ID:              s.ID,
		Date:            s.Date.String(),
		Hours:           s.Hours.String(),
		HourlyRateCents: s.HourlyRate.Cents,
		BonusCents:      centsPtr(s.Bonus),
		DeductionsCents: centsPtr(s.Deductions),
		TotalCents:      total.Cents,
		Total:           core.FormatEuros(total.Cents),
	}
}

func newTotalsView(t core.Totals) totalsView {
	return totalsView{
		IncomeCents:  t.Income.Cents,
		Income:       core.FormatEuros(t.Income.Cents),
		ExpenseCents: t.Expense.Cents,
		Expense:      core.FormatEuros(t.Expense.Cents),
		BalanceCents: t.Balance.Cents,
		Balance:      core.FormatEuros(t.Balance.Cents),
		Count:        t.Count,
	}
}

func newPeriodView(p core.PeriodSalary) periodView {
	return periodView{
		Shifts:     p.Shifts,
		Hours:      p.Hours,
		TotalCents: p.Total.Cents,
		Total:      core.FormatEuros(p.Total.Cents),
	}
}

func newSalaryView(s core.SalarySummary) salaryView {
	return salaryView{
		Year:       s.Year,
		Month:      s.Month,
		Period1:    newPeriodView(s.Period1),
		Period2:    newPeriodView(s.Period2),
		TotalCents: s.Total.Cents,
		Total:      core.FormatEuros(s.Total.Cents),
	}
}

func newNotificationViews(ns []core.Notification) []notificationView {
	out := make([]notificationView, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationView{
			PaymentID:    n.PaymentID,
			Name:         n.Name,
			AmountCents:  n.Amount.Cents,
			Amount:       core.FormatEuros(n.Amount.Cents),
			DueDate:      n.DueDate.String(),
			DaysUntilDue: n.DaysUntilDue,
			Message:      n.Message,
			Severity:     string(n.Severity),
		})
	}
	return out
}

func newCategoryViews(cs []core.CategoryAmount) []categoryView {
	out := make([]categoryView, 0, len(cs))
	for _, c := range cs {
		out = append(out, categoryView{
			Name:        c.Name,
			AmountCents: c.Amount.Cents,
			Amount:      core.FormatEuros(c.Amount.Cents),
			Count:       c.Count,
		})
	}
	return out
}

func newMonthViews(ms []core.MonthBreakdown) []monthView {
	out := make([]monthView, 0, len(ms))
	for _, m := range ms {
		net := m.Net()
		out = append(out, monthView{
			Period:       m.Period(),
			Year:         m.Year,
			Month:        m.Month,
			IncomeCents:  m.Income.Cents,
			ExpenseCents: m.Expense.Cents,
			NetCents:     net.Cents,
			Net:          core.FormatEuros(net.Cents),
		})
	}
	return out
}

func newOverviewView(o services.Overview) overviewView {
	return overviewView{
		Date:              o.Reference.String(),
		Totals:            newTotalsView(o.Totals),
		Salary:            newSalaryView(o.Salary),
		Notifications:     newNotificationViews(o.Notifications),
		IncomeCategories:  newCategoryViews(o.IncomeCategories),
		ExpenseCategories: newCategoryViews(o.ExpenseCategories),
		Monthly:           newMonthViews(o.Monthly),
	}
}

func mapSlice[T, V any](xs []T, f func(T) V) []V {
	out := make([]V, 0, len(xs))
	for _, x := range xs {
		out = append(out, f(x))
	}
	return out
}

func centsPtr(m *core.Money) *int64 {
	if m == nil {
		return nil
	}
	c := m.Cents
	return &c
}
