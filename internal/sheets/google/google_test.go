package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/core"
	"bilancio/internal/store"
)

type appendCall struct {
	path  string
	query string
	body  gsheet.ValueRange
}

// fakeSheets records append calls and answers like the Sheets API.
func fakeSheets(t *testing.T) (*gsheet.Service, func() []appendCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []appendCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var vr gsheet.ValueRange
		if err := json.Unmarshal(raw, &vr); err != nil {
			t.Errorf("request body is not a ValueRange: %v", err)
		}
		mu.Lock()
		calls = append(calls, appendCall{path: r.URL.Path, query: r.URL.RawQuery, body: vr})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"updates":{"updatedRange":"2025 Transactions!A2:F2"}}`)
	}))
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return svc, func() []appendCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]appendCall(nil), calls...)
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppendTransaction(t *testing.T) {
	svc, calls := fakeSheets(t)
	c := NewWithService(svc, Config{SpreadsheetID: "sheet-id"}, nil)

	tx := core.Transaction{
		ID:          "t1",
		Type:        core.Expense,
		Category:    "Food",
		Amount:      core.Money{Cents: 1250},
		Description: "Lunch",
		Date:        time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC),
	}
	ref, err := c.AppendTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("AppendTransaction() error = %v", err)
	}
	if ref != "2025 Transactions!A2:F2" {
		t.Errorf("ref = %q", ref)
	}

	got := calls()
	if len(got) != 1 {
		t.Fatalf("expected 1 call, got %d", len(got))
	}
	if !strings.Contains(got[0].path, "sheet-id") || !strings.Contains(got[0].path, "2025 Transactions!A:F:append") {
		t.Errorf("unexpected path %q", got[0].path)
	}
	if !strings.Contains(got[0].query, "valueInputOption=USER_ENTERED") {
		t.Errorf("unexpected query %q", got[0].query)
	}
	row := got[0].body.Values[0]
	if row[0] != "2025-03-04" || row[2] != "Food" || row[4] != "12.50" || row[5] != "t1" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestAppendTransaction_Invalid(t *testing.T) {
	c := &Client{spreadsheetID: "test"} // svc is nil; validation runs first
	_, err := c.AppendTransaction(context.Background(), core.Transaction{ID: "x"})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestObserveExportsShiftsWithTotal(t *testing.T) {
	svc, calls := fakeSheets(t)
	c := NewWithService(svc, Config{SpreadsheetID: "sheet-id", ShiftsSheet: "Turni"}, func(core.Shift) core.Money {
		return core.Money{Cents: 8400}
	})

	sh := core.Shift{
		ID:         "s1",
		Date:       core.NewDate(2025, 1, 15),
		Hours:      decimal.NewFromInt(8),
		HourlyRate: core.Money{Cents: 800},
		Bonus:      core.MoneyPtr(core.Money{Cents: 2000}),
	}
	c.Observe(context.Background(), store.Event{Kind: store.ShiftAdded, Shift: &sh})

	p := core.Payment{ID: "p1"}
	c.Observe(context.Background(), store.Event{Kind: store.PaymentAdded, Payment: &p})

	got := calls()
	if len(got) != 1 {
		t.Fatalf("expected only the shift to be exported, got %d calls", len(got))
	}
	if !strings.Contains(got[0].path, "2025 Turni!A:G") {
		t.Errorf("unexpected path %q", got[0].path)
	}
	row := got[0].body.Values[0]
	if row[3] != "20.00" || row[4] != "" || row[5] != "84.00" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Transactions", 2025, "2025 Transactions"},
		{"2024 Transactions", 2025, "2024 Transactions"},
		{"  ", 2025, ""},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}
