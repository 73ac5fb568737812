package core

import (
	"fmt"
	"strconv"
)

// Formatter renders amounts and dates for user-facing text such as
// notification messages. Swap it to change currency symbol or date layout.
type Formatter interface {
	Money(m Money) string
	Date(d Date) string
}

// EuroFormatter renders "€12,34" and "02/01/2006".
type EuroFormatter struct{}

func (EuroFormatter) Money(m Money) string {
	return FormatEuros(m.Cents)
}

func (EuroFormatter) Date(d Date) string {
	return d.Format("02/01/2006")
}

// FormatEuros formats cents as a Euro currency string (e.g., "€12,34").
func FormatEuros(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "," + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-€" + s
	}
	return "€" + s
}
