package services

import (
	"fmt"

	"bilancio/internal/core"
)

// DefaultWindowDays is how many days ahead a payment starts to be flagged.
const DefaultWindowDays = 3

// NotifierOptions tunes DueNotificationsWith. Zero values fall back to the
// defaults.
type NotifierOptions struct {
	WindowDays int
	Formatter  core.Formatter
}

func (o NotifierOptions) withDefaults() NotifierOptions {
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	if o.Formatter == nil {
		o.Formatter = core.EuroFormatter{}
	}
	return o
}

// DueNotifications flags every unpaid payment due between now and
// DefaultWindowDays days later, inclusive. Past-due payments are not flagged.
// The result follows the order of payments.
func DueNotifications(payments []core.Payment, now core.Date, f core.Formatter) []core.Notification {
	return DueNotificationsWith(payments, now, NotifierOptions{Formatter: f})
}

func DueNotificationsWith(payments []core.Payment, now core.Date, opts NotifierOptions) []core.Notification {
	opts = opts.withDefaults()

	var out []core.Notification
	for _, p := range payments {
		if p.Status == core.Paid {
			continue
		}
		days := now.DaysUntil(p.DueDate)
		if days < 0 || days > opts.WindowDays {
			continue
		}
		out = append(out, core.Notification{
			PaymentID:    p.ID,
			Name:         p.Name,
			Amount:       p.Amount,
			DueDate:      p.DueDate,
			DaysUntilDue: days,
			Message:      dueMessage(p, days, opts.Formatter),
			Severity:     severityFor(days),
		})
	}
	return out
}

func severityFor(days int) core.Severity {
	if days == 0 {
		return core.SeverityCritical
	}
	return core.SeverityWarning
}

func dueMessage(p core.Payment, days int, f core.Formatter) string {
	amount := f.Money(p.Amount)
	switch days {
	case 0:
		return fmt.Sprintf("%s (%s) is due today", p.Name, amount)
	case 1:
		return fmt.Sprintf("%s (%s) is due tomorrow, %s", p.Name, amount, f.Date(p.DueDate))
	default:
		return fmt.Sprintf("%s (%s) is due in %d days, %s", p.Name, amount, days, f.Date(p.DueDate))
	}
}
