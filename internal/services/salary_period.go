package services

import (
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// SalaryPeriod identifies one half of a monthly pay cycle.
type SalaryPeriod int

const (
	// Period1 covers days 30 and 31 of the previous month through day 14.
	Period1 SalaryPeriod = 1
	// Period2 covers days 15 through 29.
	Period2 SalaryPeriod = 2
)

const (
	period2FirstDay = 15
	period2LastDay  = 29
)

func (p SalaryPeriod) String() string {
	if p == Period2 {
		return "period2"
	}
	return "period1"
}

// ClassifyPeriod reports which pay period a work date belongs to. It looks
// at the day of month only.
func ClassifyPeriod(d core.Date) SalaryPeriod {
	if day := d.Day(); day >= period2FirstDay && day <= period2LastDay {
		return Period2
	}
	return Period1
}

// CycleMonth returns the first day of the pay cycle month a date belongs
// to. Days 30 and 31 open the following month's cycle.
func CycleMonth(d core.Date) core.Date {
	first := time.Date(d.Year(), time.Month(d.Month()), 1, 0, 0, 0, 0, time.UTC)
	if d.Day() > period2LastDay {
		first = first.AddDate(0, 1, 0)
	}
	return core.Date{Time: first}
}

// SplitByPeriod partitions shifts by ClassifyPeriod, ignoring which month
// they fall in. Input order is preserved within each side.
func SplitByPeriod(shifts []core.Shift) (p1, p2 []core.Shift) {
	for _, s := range shifts {
		if ClassifyPeriod(s.Date) == Period1 {
			p1 = append(p1, s)
		} else {
			p2 = append(p2, s)
		}
	}
	return p1, p2
}

// SalaryPeriods summarizes the pay cycle that ref falls in. Only shifts in
// the same cycle month are counted.
func SalaryPeriods(shifts []core.Shift, ref core.Date) core.SalarySummary {
	cycle := CycleMonth(ref)
	var inCycle []core.Shift
	for _, s := range shifts {
		if CycleMonth(s.Date).Equal(cycle.Time) {
			inCycle = append(inCycle, s)
		}
	}

	p1, p2 := SplitByPeriod(inCycle)
	sum := core.SalarySummary{
		Year:    cycle.Year(),
		Month:   cycle.Month(),
		Period1: summarizePeriod(p1),
		Period2: summarizePeriod(p2),
	}
	sum.Total = sum.Period1.Total.Add(sum.Period2.Total)
	return sum
}

func summarizePeriod(shifts []core.Shift) core.PeriodSalary {
	hours := decimal.Zero
	for _, s := range shifts {
		hours = hours.Add(s.Hours)
	}
	return core.PeriodSalary{
		Shifts: len(shifts),
		Hours:  hours.String(),
		Total:  SalaryForPeriod(shifts),
	}
}
