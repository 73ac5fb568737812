package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/store"
)

// Routing keys on the exchange.
const (
	EventsRoutingKey        = "events"
	NotificationsRoutingKey = "notifications"
)

// EventMessage announces one committed record change. Only the record
// matching Kind is set.
type EventMessage struct {
	Kind           string              `json:"kind"`
	Transaction    *TransactionPayload `json:"transaction,omitempty"`
	Payment        *PaymentPayload     `json:"payment,omitempty"`
	Shift          *ShiftPayload       `json:"shift,omitempty"`
	PreviousStatus string              `json:"previous_status,omitempty"`
	Timestamp      time.Time           `json:"timestamp"`
}

type TransactionPayload struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

type PaymentPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	Type        string `json:"type"`
}

type ShiftPayload struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	Hours           string `json:"hours"`
	HourlyRateCents int64  `json:"hourly_rate_cents"`
	BonusCents      *int64 `json:"bonus_cents,omitempty"`
	DeductionsCents *int64 `json:"deductions_cents,omitempty"`
}

// NewEventMessage converts a store event into its wire form.
func NewEventMessage(e store.Event) (*EventMessage, error) {
	msg := &EventMessage{Kind: string(e.Kind), Timestamp: e.At}
	switch e.Kind {
	case store.TransactionAdded:
		tx := e.Transaction
		msg.Transaction = &TransactionPayload{
			ID:          tx.ID,
			Type:        string(tx.Type),
			Category:    tx.Category,
			AmountCents: tx.Amount.Cents,
			Description: tx.Description,
			Date:        tx.Date,
		}
	case store.PaymentAdded, store.PaymentStatusChanged:
		p := e.Payment
		msg.Payment = &PaymentPayload{
			ID:          p.ID,
			Name:        p.Name,
			AmountCents: p.Amount.Cents,
			DueDate:     p.DueDate.String(),
			Status:      string(p.Status),
			Type:        string(p.Type),
		}
		msg.PreviousStatus = string(e.PreviousStatus)
	case store.ShiftAdded:
		s := e.Shift
		msg.Shift = &ShiftPayload{
			ID:              s.ID,
			Date:            s.Date.String(),
			Hours:           s.Hours.String(),
			HourlyRateCents: s.HourlyRate.Cents,
			BonusCents:      centsOrNil(s.Bonus),
			DeductionsCents: centsOrNil(s.Deductions),
		}
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return msg, nil
}

// ToJSON converts the message to JSON bytes
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationBatchMessage carries every due-payment notification computed
// for one reference date.
type NotificationBatchMessage struct {
	Date          string                `json:"date"`
	Notifications []NotificationPayload `json:"notifications"`
	Timestamp     time.Time             `json:"timestamp"`
}

type NotificationPayload struct {
	PaymentID    string `json:"payment_id"`
	Name         string `json:"name"`
	AmountCents  int64  `json:"amount_cents"`
	DueDate      string `json:"due_date"`
	DaysUntilDue int    `json:"days_until_due"`
	Message      string `json:"message"`
	Severity     string `json:"severity"`
}

func NewNotificationBatchMessage(ref core.Date, ns []core.Notification) *NotificationBatchMessage {
	msg := &NotificationBatchMessage{
		Date:          ref.String(),
		Notifications: make([]NotificationPayload, len(ns)),
		Timestamp:     time.Now(),
	}
	for i, n := range ns {
		msg.Notifications[i] = NotificationPayload{
			PaymentID:    n.PaymentID,
			Name:         n.Name,
			AmountCents:  n.Amount.Cents,
			DueDate:      n.DueDate.String(),
			DaysUntilDue: n.DaysUntilDue,
			Message:      n.Message,
			Severity:     string(n.Severity),
		}
	}
	return msg
}

func (m *NotificationBatchMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func centsOrNil(m *core.Money) *int64 {
	if m == nil {
		return nil
	}
	c := m.Cents
	return &c
}
