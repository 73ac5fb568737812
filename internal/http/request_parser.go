// This file implements decoding of JSON request bodies and query
// parameters into core inputs.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bilancio/internal/core"
)

const maxBodyBytes = 1 << 20

// errMalformedBody marks bodies that are not a single valid JSON object.
var errMalformedBody = errors.New("malformed JSON body")

// flexDecimal accepts an amount sent either as a JSON string ("12,50") or
// as a JSON number (12.5). The literal text is kept for exact parsing.
type flexDecimal struct {
	raw string
	set bool
}

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f.raw, f.set = s, true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number")
	}
	f.raw, f.set = n.String(), true
	return nil
}

type transactionRequest struct {
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Amount      flexDecimal `json:"amount"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
}

type paymentRequest struct {
	Name    string      `json:"name"`
	Amount  flexDecimal `json:"amount"`
	DueDate string      `json:"due_date"`
	Type    string      `json:"type"`
}

type shiftRequest struct {
	Date       string      `json:"date"`
	Hours      flexDecimal `json:"hours"`
	HourlyRate flexDecimal `json:"hourly_rate"`
	Bonus      flexDecimal `json:"bonus"`
	Deductions flexDecimal `json:"deductions"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// decodeJSON reads exactly one JSON object into v. Unknown fields are
// rejected so misspelled keys do not silently drop data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON object", errMalformedBody)
	}
	return nil
}

// toInput converts the request, defaulting an empty date to now.
func (req transactionRequest) toInput(now time.Time) (core.TransactionInput, error) {
	cents, err := requiredAmount("amount", req.Amount)
	if err != nil {
		return core.TransactionInput{}, err
	}
	date := now
	if strings.TrimSpace(req.Date) != "" {
		if date, err = parseTimestamp(req.Date); err != nil {
			return core.TransactionInput{}, err
		}
	}
	return core.TransactionInput{
		Type:        core.TransactionType(req.Type),
		Category:    req.Category,
		Amount:      core.Money{Cents: cents},
		Description: req.Description,
		Date:        date,
	}, nil
}

// toInput converts the request; due_date is required.
func (req paymentRequest) toInput() (core.PaymentInput, error) {
	cents, err := requiredAmount("amount", req.Amount)
	if err != nil {
		return core.PaymentInput{}, err
	}
	due, err := parseDateField("due_date", req.DueDate)
	if err != nil {
		return core.PaymentInput{}, err
	}
	return core.PaymentInput{
		Name:    req.Name,
		Amount:  core.Money{Cents: cents},
		DueDate: due,
		Type:    core.PaymentType(req.Type),
	}, nil
}

// toInput converts the request, defaulting an empty date to today.
func (req shiftRequest) toInput(today core.Date) (core.ShiftInput, error) {
	date := today
	if strings.TrimSpace(req.Date) != "" {
		var err error
		if date, err = parseDateField("date", req.Date); err != nil {
			return core.ShiftInput{}, err
		}
	}
	hours, err := core.ParseHours(req.Hours.raw)
	if err != nil {
		return core.ShiftInput{}, err
	}
	rate, err := requiredAmount("hourly_rate", req.HourlyRate)
	if err != nil {
		return core.ShiftInput{}, err
	}
	bonus, err := optionalAmount("bonus", req.Bonus)
	if err != nil {
		return core.ShiftInput{}, err
	}
	deductions, err := optionalAmount("deductions", req.Deductions)
	if err != nil {
		return core.ShiftInput{}, err
	}
	return core.ShiftInput{
		Date:       date,
		Hours:      hours,
		HourlyRate: core.Money{Cents: rate},
		Bonus:      bonus,
		Deductions: deductions,
	}, nil
}

func requiredAmount(field string, f flexDecimal) (int64, error) {
	if !f.set {
		return 0, &core.ValidationError{Field: field, Reason: "is required"}
	}
	cents, err := core.ParseDecimalToCents(f.raw)
	if err != nil {
		return 0, &core.ValidationError{Field: field, Reason: "must be a positive decimal amount"}
	}
	return cents, nil
}

func optionalAmount(field string, f flexDecimal) (*core.Money, error) {
	if !f.set {
		return nil, nil
	}
	m, err := core.ParseOptionalCents(f.raw)
	if err != nil {
		return nil, &core.ValidationError{Field: field, Reason: "must be a non-negative decimal amount"}
	}
	return m, nil
}

func parseDateField(field, s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, &core.ValidationError{Field: field, Reason: "is required"}
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: field, Reason: "must be YYYY-MM-DD"}
	}
	return d, nil
}

// parseTimestamp accepts RFC 3339 or a bare YYYY-MM-DD date.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return time.Time{}, &core.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD or RFC 3339"}
	}
	return d.Time, nil
}

// referenceDate reads the "date" query parameter, defaulting to today.
func referenceDate(r *http.Request, today core.Date) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get("date"))
	if v == "" {
		return today, nil
	}
	return parseDateField("date", v)
}
