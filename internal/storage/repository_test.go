package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/services"
	"bilancio/internal/store"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "journal.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestJournalRoundTrip(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()

	s := store.New()
	s.Subscribe(repo.Observe)

	if _, err := s.AddTransaction(ctx, core.TransactionInput{
		Type:        core.Expense,
		Category:    "Food",
		Amount:      core.Money{Cents: 1250},
		Description: "Lunch",
		Date:        time.Date(2025, 1, 10, 13, 30, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddTransaction(ctx, core.TransactionInput{
		Type:        core.Income,
		Category:    "Salary",
		Amount:      core.Money{Cents: 200000},
		Description: "January",
		Date:        time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}
	p, err := s.AddPayment(ctx, core.PaymentInput{Name: "Rent", Amount: core.Money{Cents: 80000}, DueDate: core.NewDate(2025, 2, 1), Type: core.Recurring})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetPaymentStatus(ctx, p.ID, core.Paid); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddShift(ctx, core.ShiftInput{
		Date:       core.NewDate(2025, 1, 15),
		Hours:      decimal.RequireFromString("7.5"),
		HourlyRate: core.Money{Cents: 1200},
		Deductions: core.MoneyPtr(core.Money{Cents: 0}),
	}); err != nil {
		t.Fatal(err)
	}

	// Reopen to make sure everything reached the file.
	repo.Close()
	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	snap, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	restored := store.New()
	if err := restored.Restore(ctx, snap); err != nil {
		t.Fatalf("restore: %v", err)
	}

	want := s.Snapshot()
	got := restored.Snapshot()
	if len(got.Transactions) != 2 || got.Transactions[0].ID != want.Transactions[0].ID {
		t.Fatalf("transactions not in store order: %+v", got.Transactions)
	}
	if !got.Transactions[1].Date.Equal(want.Transactions[1].Date) {
		t.Errorf("date changed: %v vs %v", got.Transactions[1].Date, want.Transactions[1].Date)
	}
	if len(got.Payments) != 1 || got.Payments[0].Status != core.Paid {
		t.Errorf("payment status not journaled: %+v", got.Payments)
	}
	sh := got.Shifts[0]
	if !sh.Hours.Equal(decimal.RequireFromString("7.5")) || sh.Bonus != nil || sh.Deductions == nil || sh.Deductions.Cents != 0 {
		t.Errorf("unexpected shift: %+v", sh)
	}
}

func TestReplayKeepsDerivedViews(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	rome := time.FixedZone("CEST", 2*60*60)
	s := store.New()
	s.Subscribe(repo.Observe)
	for _, in := range []core.TransactionInput{
		{Type: core.Income, Category: "Salary", Amount: core.Money{Cents: 200000}, Description: "April", Date: time.Date(2025, 4, 1, 1, 0, 0, 0, rome)},
		{Type: core.Expense, Category: "Rent", Amount: core.Money{Cents: 80000}, Description: "March", Date: time.Date(2025, 3, 31, 23, 30, 0, 0, time.UTC)},
	} {
		if _, err := s.AddTransaction(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	snap, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	restored := store.New()
	if err := restored.Restore(ctx, snap); err != nil {
		t.Fatalf("restore: %v", err)
	}

	before := services.MonthlyBreakdown(s.ListTransactions())
	after := services.MonthlyBreakdown(restored.ListTransactions())
	if len(before) != 2 || len(after) != len(before) {
		t.Fatalf("months before = %+v, after = %+v", before, after)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("month %d changed across replay: %+v vs %+v", i, before[i], after[i])
		}
	}
	if after[1].Month != 4 || after[1].Income.Cents != 200000 {
		t.Errorf("April income moved: %+v", after[1])
	}
	if got := restored.ListTransactions()[1].Date; got.Format(time.RFC3339) != "2025-04-01T01:00:00+02:00" {
		t.Errorf("offset lost: %s", got.Format(time.RFC3339))
	}
	if services.Summarize(s.ListTransactions()) != services.Summarize(restored.ListTransactions()) {
		t.Error("totals changed across replay")
	}
}

func TestImportAndIsEmpty(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.IsEmpty(ctx)
	if err != nil || !empty {
		t.Fatalf("new journal should be empty: %v %v", empty, err)
	}

	snap := store.Snapshot{
		Transactions: []core.Transaction{
			{ID: "t2", Type: core.Income, Category: "Salary", Amount: core.Money{Cents: 2}, Description: "newer", Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
			{ID: "t1", Type: core.Income, Category: "Salary", Amount: core.Money{Cents: 1}, Description: "older", Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
		Payments: []core.Payment{
			{ID: "p1", Name: "Loan", Amount: core.Money{Cents: 100}, DueDate: core.NewDate(2024, 12, 1), Status: core.Overdue, Type: core.Debt},
		},
	}
	if err := repo.Import(ctx, snap); err != nil {
		t.Fatalf("import: %v", err)
	}

	empty, err = repo.IsEmpty(ctx)
	if err != nil || empty {
		t.Fatalf("journal should not be empty after import: %v %v", empty, err)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Transactions[0].ID != "t2" || loaded.Transactions[1].ID != "t1" {
		t.Errorf("import did not preserve order: %+v", loaded.Transactions)
	}
	if loaded.Payments[0].Status != core.Overdue {
		t.Errorf("status lost: %+v", loaded.Payments[0])
	}
}

func TestImportIsAtomic(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	dup := core.Payment{ID: "same", Name: "A", Amount: core.Money{Cents: 1}, DueDate: core.NewDate(2025, 1, 1), Status: core.Pending, Type: core.Credit}
	if err := repo.Import(ctx, store.Snapshot{Payments: []core.Payment{dup, dup}}); err == nil {
		t.Fatal("expected duplicate id to fail the import")
	}
	if empty, _ := repo.IsEmpty(ctx); !empty {
		t.Fatal("failed import left rows behind")
	}
}

func TestRecordUnknownPaymentStatusChange(t *testing.T) {
	repo, _ := newTestRepo(t)
	p := core.Payment{ID: "ghost", Status: core.Paid}
	err := repo.Record(context.Background(), store.Event{Kind: store.PaymentStatusChanged, Payment: &p, At: time.Now()})
	if err == nil {
		t.Fatal("expected error when updating a payment that was never journaled")
	}
}
