package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"bilancio/internal/core"
	ports "bilancio/internal/sheets"
	"bilancio/internal/store"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// ShiftTotaler computes the derived total exported next to each shift.
type ShiftTotaler func(core.Shift) core.Money

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string // base name; the record's year is prefixed
	shiftsSheet       string
	shiftTotal        ShiftTotaler
}

// Ensure interface conformance
var (
	_ ports.TransactionExporter = (*Client)(nil)
	_ ports.ShiftExporter       = (*Client)(nil)
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID      string
	TransactionsSheet  string // default "Transactions"
	ShiftsSheet        string // default "Shifts"
	ServiceAccountJSON string
	ServiceAccountFile string
}

// New creates a Sheets exporter authenticated with a service account.
func New(ctx context.Context, cfg Config, shiftTotal ShiftTotaler) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	credentialsJSON, err := loadCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", cfg.SpreadsheetID)
	return NewWithService(svc, cfg, shiftTotal), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service, cfg Config, shiftTotal ShiftTotaler) *Client {
	c := &Client{
		svc:               svc,
		spreadsheetID:     strings.TrimSpace(cfg.SpreadsheetID),
		transactionsSheet: strings.TrimSpace(cfg.TransactionsSheet),
		shiftsSheet:       strings.TrimSpace(cfg.ShiftsSheet),
		shiftTotal:        shiftTotal,
	}
	if c.transactionsSheet == "" {
		c.transactionsSheet = "Transactions"
	}
	if c.shiftsSheet == "" {
		c.shiftsSheet = "Shifts"
	}
	return c
}

func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Observe is a store.Observer exporting added transactions and shifts.
// Other events are ignored.
func (c *Client) Observe(ctx context.Context, e store.Event) {
	var (
		ref string
		err error
	)
	switch e.Kind {
	case store.TransactionAdded:
		ref, err = c.AppendTransaction(ctx, *e.Transaction)
	case store.ShiftAdded:
		ref, err = c.AppendShift(ctx, *e.Shift, c.total(*e.Shift))
	default:
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to export record to Google Sheets", "kind", e.Kind, "error", err)
		return
	}
	slog.DebugContext(ctx, "Record exported to Google Sheets", "kind", e.Kind, "range", ref)
}

func (c *Client) total(s core.Shift) core.Money {
	if c.shiftTotal == nil {
		return core.Money{}
	}
	return c.shiftTotal(s)
}

// AppendTransaction writes Date, Type, Category, Description, Amount, ID.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	sheet := yearPrefixedName(c.transactionsSheet, tx.Date.Year())
	row := []any{
		tx.Date.Format("2006-01-02"),
		string(tx.Type),
		tx.Category,
		tx.Description,
		tx.Amount.Decimal().StringFixed(2),
		tx.ID,
	}
	return c.appendRow(ctx, sheet, "A:F", row)
}

// AppendShift writes Date, Hours, Rate, Bonus, Deductions, Total, ID.
// Absent adjustments are left blank.
func (c *Client) AppendShift(ctx context.Context, s core.Shift, total core.Money) (string, error) {
	if err := s.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	sheet := yearPrefixedName(c.shiftsSheet, s.Date.Year())
	row := []any{
		s.Date.String(),
		s.Hours.String(),
		s.HourlyRate.Decimal().StringFixed(2),
		optionalAmount(s.Bonus),
		optionalAmount(s.Deductions),
		total.Decimal().StringFixed(2),
		s.ID,
	}
	return c.appendRow(ctx, sheet, "A:G", row)
}

func (c *Client) appendRow(ctx context.Context, sheet, cols string, row []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

func optionalAmount(m *core.Money) string {
	if m == nil {
		return ""
	}
	return m.Decimal().StringFixed(2)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
