package store

import (
	"context"
	"sort"
	"time"

	"bilancio/internal/core"
)

type EventKind string

const (
	TransactionAdded     EventKind = "transaction.added"
	PaymentAdded         EventKind = "payment.added"
	ShiftAdded           EventKind = "shift.added"
	PaymentStatusChanged EventKind = "payment.status_changed"
)

// Event describes one committed mutation. Exactly one of Transaction,
// Payment or Shift is set, matching Kind.
type Event struct {
	Kind           EventKind
	Transaction    *core.Transaction
	Payment        *core.Payment
	Shift          *core.Shift
	PreviousStatus core.PaymentStatus // only for PaymentStatusChanged
	At             time.Time
}

// Observer is called once per committed mutation, in commit order.
// Observers must not mutate the store they are subscribed to.
type Observer func(ctx context.Context, e Event)

// Snapshot is a consistent copy of every collection, in store order.
type Snapshot struct {
	Transactions []core.Transaction
	Payments     []core.Payment
	Shifts       []core.Shift
}

// Len returns the total number of records in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Transactions) + len(s.Payments) + len(s.Shifts)
}

// Subscribe registers fn for future commits. The returned func removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// commitLocked must be called with s.mu held for writing. It releases the
// write lock and notifies observers while holding emitMu, so observers see
// events in the same order the mutations were applied.
func (s *Store) commitLocked(ctx context.Context, e Event) {
	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()

	e.At = s.now()
	for _, fn := range s.currentObservers() {
		fn(ctx, e)
	}
}

func (s *Store) currentObservers() []Observer {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Observer, len(ids))
	for i, id := range ids {
		out[i] = s.observers[id]
	}
	return out
}
