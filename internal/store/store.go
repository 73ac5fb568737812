// Package store holds the in-memory record collections: transactions,
// payments and shifts. It is the single owner of those records; every read
// returns a copy.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

type Store struct {
	mu           sync.RWMutex
	emitMu       sync.Mutex // held from commit until observers return
	transactions []core.Transaction // most recent first
	payments     []core.Payment
	shifts       []core.Shift
	ids          map[string]struct{}

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int

	newID  func() string
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Store)

// WithIDGenerator overrides the UUID generator, mainly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock overrides the clock used to timestamp events.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func New(opts ...Option) *Store {
	s := &Store{
		ids:       make(map[string]struct{}),
		observers: make(map[int]Observer),
		newID:     uuid.NewString,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTransaction validates the candidate, assigns a fresh id and stores it
// in front of the existing transactions.
func (s *Store) AddTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	tx := core.Transaction{
		ID:          s.freshIDLocked(),
		Type:        in.Type,
		Category:    in.Category,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
	}
	s.transactions = prepend(s.transactions, tx)

	s.logger.DebugContext(ctx, "Transaction stored",
		"id", tx.ID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents)

	evt := tx
	s.commitLocked(ctx, Event{Kind: TransactionAdded, Transaction: &evt})
	return tx, nil
}

// AddPayment stores a new payment. Payments always start pending.
func (s *Store) AddPayment(ctx context.Context, in core.PaymentInput) (core.Payment, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Payment{}, err
	}

	s.mu.Lock()
	p := core.Payment{
		ID:      s.freshIDLocked(),
		Name:    in.Name,
		Amount:  in.Amount,
		DueDate: in.DueDate,
		Status:  core.Pending,
		Type:    in.Type,
	}
	s.payments = prepend(s.payments, p)

	s.logger.DebugContext(ctx, "Payment stored", "id", p.ID, "name", p.Name, "due_date", p.DueDate.String())

	evt := p
	s.commitLocked(ctx, Event{Kind: PaymentAdded, Payment: &evt})
	return p, nil
}

func (s *Store) AddShift(ctx context.Context, in core.ShiftInput) (core.Shift, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Shift{}, err
	}

	s.mu.Lock()
	sh := core.Shift{
		ID:         s.freshIDLocked(),
		Date:       in.Date,
		Hours:      in.Hours,
		HourlyRate: in.HourlyRate,
		Bonus:      in.Bonus,
		Deductions: in.Deductions,
	}.Clone()
	s.shifts = prepend(s.shifts, sh)
	out := sh.Clone()

	s.logger.DebugContext(ctx, "Shift stored", "id", out.ID, "date", out.Date.String(), "hours", out.Hours.String())

	evt := out.Clone()
	s.commitLocked(ctx, Event{Kind: ShiftAdded, Shift: &evt})
	return out, nil
}

// SetPaymentStatus changes the status of a payment. A paid payment can
// never go back to pending or overdue.
func (s *Store) SetPaymentStatus(ctx context.Context, id string, status core.PaymentStatus) (core.Payment, error) {
	if !status.IsValid() {
		return core.Payment{}, &core.ValidationError{Field: "status", Reason: "must be one of pending, paid, overdue"}
	}

	s.mu.Lock()
	idx := s.paymentIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.Payment{}, &core.NotFoundError{Kind: "payment", ID: id}
	}
	current := s.payments[idx]
	if !core.CanTransition(current.Status, status) {
		s.mu.Unlock()
		return core.Payment{}, &core.InvalidTransitionError{ID: id, From: current.Status, To: status}
	}
	if current.Status == status {
		s.mu.Unlock()
		return current, nil
	}
	s.payments[idx].Status = status
	updated := s.payments[idx]

	s.logger.InfoContext(ctx, "Payment status changed",
		"id", id,
		"from", current.Status,
		"to", status)

	evt := updated
	s.commitLocked(ctx, Event{Kind: PaymentStatusChanged, Payment: &evt, PreviousStatus: current.Status})
	return updated, nil
}

// GetPayment returns a copy of the payment with the given id.
func (s *Store) GetPayment(id string) (core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.paymentIndexLocked(id)
	if idx < 0 {
		return core.Payment{}, &core.NotFoundError{Kind: "payment", ID: id}
	}
	return s.payments[idx], nil
}

// ListTransactions returns a snapshot of all transactions, most recent first.
func (s *Store) ListTransactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.transactions...)
}

func (s *Store) ListPayments() []core.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Payment(nil), s.payments...)
}

func (s *Store) ListShifts() []core.Shift {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Shift, len(s.shifts))
	for i, sh := range s.shifts {
		out[i] = sh.Clone()
	}
	return out
}

// Snapshot returns all three collections read under a single lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Transactions: append([]core.Transaction(nil), s.transactions...),
		Payments:     append([]core.Payment(nil), s.payments...),
		Shifts:       make([]core.Shift, len(s.shifts)),
	}
	for i, sh := range s.shifts {
		snap.Shifts[i] = sh.Clone()
	}
	return snap
}

// Restore admits previously stored records, keeping their ids and
// statuses. Records are given in store order (most recent first) and are
// placed after any records already present. Either every record is
// admitted or none is. Observers are not notified.
func (s *Store) Restore(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, snap.Len())
	check := func(kind, id string, err error) error {
		if err != nil {
			return fmt.Errorf("restore %s %q: %w", kind, id, err)
		}
		if _, dup := s.ids[id]; dup {
			return fmt.Errorf("restore %s: %w", kind, &core.ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate id %q", id)})
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("restore %s: %w", kind, &core.ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate id %q", id)})
		}
		seen[id] = struct{}{}
		return nil
	}

	for _, tx := range snap.Transactions {
		if err := check("transaction", tx.ID, tx.Validate()); err != nil {
			return err
		}
	}
	for _, p := range snap.Payments {
		if err := check("payment", p.ID, p.Validate()); err != nil {
			return err
		}
	}
	for _, sh := range snap.Shifts {
		if err := check("shift", sh.ID, sh.Validate()); err != nil {
			return err
		}
	}

	s.transactions = append(s.transactions, snap.Transactions...)
	s.payments = append(s.payments, snap.Payments...)
	for _, sh := range snap.Shifts {
		s.shifts = append(s.shifts, sh.Clone())
	}
	for id := range seen {
		s.ids[id] = struct{}{}
	}

	s.logger.InfoContext(ctx, "Records restored",
		"transactions", len(snap.Transactions),
		"payments", len(snap.Payments),
		"shifts", len(snap.Shifts))
	return nil
}

// freshIDLocked returns an id that was never handed out by this store.
func (s *Store) freshIDLocked() string {
	for {
		id := s.newID()
		if _, used := s.ids[id]; !used {
			s.ids[id] = struct{}{}
			return id
		}
	}
}

func (s *Store) paymentIndexLocked(id string) int {
	for i := range s.payments {
		if s.payments[i].ID == id {
			return i
		}
	}
	return -1
}

func prepend[T any](xs []T, x T) []T {
	out := make([]T, 0, len(xs)+1)
	out = append(out, x)
	return append(out, xs...)
}
