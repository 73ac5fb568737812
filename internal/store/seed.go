package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"bilancio/internal/core"
)

// SeedFile is the on-disk layout of a seed file. Records are listed oldest
// first, the order in which they would have been entered.
type SeedFile struct {
	Version      int               `toml:"version"`
	Transactions []SeedTransaction `toml:"transaction"`
	Payments     []SeedPayment     `toml:"payment"`
	Shifts       []SeedShift       `toml:"shift"`
}

type SeedTransaction struct {
	ID          string `toml:"id"`
	Type        string `toml:"type"`
	Category    string `toml:"category"`
	Amount      string `toml:"amount"`
	Description string `toml:"description"`
	Date        string `toml:"date"` // YYYY-MM-DD or RFC 3339
}

type SeedPayment struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	Amount  string `toml:"amount"`
	DueDate string `toml:"due_date"`
	Status  string `toml:"status"` // defaults to pending
	Type    string `toml:"type"`
}

type SeedShift struct {
	ID         string `toml:"id"`
	Date       string `toml:"date"`
	Hours      string `toml:"hours"`
	HourlyRate string `toml:"hourly_rate"`
	Bonus      string `toml:"bonus"`
	Deductions string `toml:"deductions"`
}

// LoadSeedFile decodes a TOML seed file and admits its records through
// Restore. Records without an id get a fresh one.
func (s *Store) LoadSeedFile(ctx context.Context, path string) error {
	var f SeedFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	snap, err := s.snapshotFromSeed(f)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	if err := s.Restore(ctx, snap); err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	return nil
}

func (s *Store) snapshotFromSeed(f SeedFile) (Snapshot, error) {
	var snap Snapshot
	for i, st := range f.Transactions {
		tx, err := s.seedTransaction(st)
		if err != nil {
			return Snapshot{}, fmt.Errorf("transaction #%d: %w", i+1, err)
		}
		snap.Transactions = append(snap.Transactions, tx)
	}
	for i, sp := range f.Payments {
		p, err := s.seedPayment(sp)
		if err != nil {
			return Snapshot{}, fmt.Errorf("payment #%d: %w", i+1, err)
		}
		snap.Payments = append(snap.Payments, p)
	}
	for i, ss := range f.Shifts {
		sh, err := s.seedShift(ss)
		if err != nil {
			return Snapshot{}, fmt.Errorf("shift #%d: %w", i+1, err)
		}
		snap.Shifts = append(snap.Shifts, sh)
	}

	// most recent first, like records added one by one
	slices.Reverse(snap.Transactions)
	slices.Reverse(snap.Payments)
	slices.Reverse(snap.Shifts)
	return snap, nil
}

func (s *Store) seedTransaction(st SeedTransaction) (core.Transaction, error) {
	typ, err := core.ParseTransactionType(st.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	cents, err := core.ParseDecimalToCents(st.Amount)
	if err != nil {
		return core.Transaction{}, &core.ValidationError{Field: "amount", Reason: "must be a positive decimal"}
	}
	when, err := parseSeedTime(st.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          s.seedID(st.ID),
		Type:        typ,
		Category:    strings.TrimSpace(st.Category),
		Amount:      core.Money{Cents: cents},
		Description: strings.TrimSpace(st.Description),
		Date:        when,
	}, nil
}

func (s *Store) seedPayment(sp SeedPayment) (core.Payment, error) {
	typ, err := core.ParsePaymentType(sp.Type)
	if err != nil {
		return core.Payment{}, err
	}
	status := core.Pending
	if strings.TrimSpace(sp.Status) != "" {
		if status, err = core.ParsePaymentStatus(sp.Status); err != nil {
			return core.Payment{}, err
		}
	}
	cents, err := core.ParseDecimalToCents(sp.Amount)
	if err != nil {
		return core.Payment{}, &core.ValidationError{Field: "amount", Reason: "must be a positive decimal"}
	}
	due, err := core.ParseDate(sp.DueDate)
	if err != nil {
		return core.Payment{}, &core.ValidationError{Field: "due_date", Reason: "must be YYYY-MM-DD"}
	}
	return core.Payment{
		ID:      s.seedID(sp.ID),
		Name:    strings.TrimSpace(sp.Name),
		Amount:  core.Money{Cents: cents},
		DueDate: due,
		Status:  status,
		Type:    typ,
	}, nil
}

func (s *Store) seedShift(ss SeedShift) (core.Shift, error) {
	date, err := core.ParseDate(ss.Date)
	if err != nil {
		return core.Shift{}, err
	}
	hours, err := core.ParseHours(ss.Hours)
	if err != nil {
		return core.Shift{}, err
	}
	rate, err := core.ParseDecimalToCents(ss.HourlyRate)
	if err != nil {
		return core.Shift{}, &core.ValidationError{Field: "hourly_rate", Reason: "must be a positive decimal"}
	}
	bonus, err := core.ParseOptionalCents(ss.Bonus)
	if err != nil {
		return core.Shift{}, &core.ValidationError{Field: "bonus", Reason: "must be a non-negative decimal"}
	}
	deductions, err := core.ParseOptionalCents(ss.Deductions)
	if err != nil {
		return core.Shift{}, &core.ValidationError{Field: "deductions", Reason: "must be a non-negative decimal"}
	}
	return core.Shift{
		ID:         s.seedID(ss.ID),
		Date:       date,
		Hours:      hours,
		HourlyRate: core.Money{Cents: rate},
		Bonus:      bonus,
		Deductions: deductions,
	}, nil
}

func (s *Store) seedID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return s.newID()
}

func parseSeedTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}
