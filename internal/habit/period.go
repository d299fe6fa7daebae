package habit

import (
	"fmt"
	"strings"
	"time"
)

// Periodicity is the cadence that defines one period of a habit.
type Periodicity string

const (
	Daily   Periodicity = "daily"
	Weekly  Periodicity = "weekly"
	Monthly Periodicity = "monthly"
	Yearly  Periodicity = "yearly"
)

// Periodicities lists every supported cadence in display order.
var Periodicities = []Periodicity{Daily, Weekly, Monthly, Yearly}

// ParsePeriodicity accepts the stored lowercase names, case-insensitively.
func ParsePeriodicity(raw string) (Periodicity, error) {
	p := Periodicity(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown periodicity %q, expected one of daily, weekly, monthly, yearly", raw)
	}
	return p, nil
}

func (p Periodicity) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (p Periodicity) String() string {
	return string(p)
}

// Distance returns the number of whole periods between older and recent.
// A negative result means recent lies before older and callers treat it as
// an irregularity.
func (p Periodicity) Distance(recent, older time.Time) int {
	recent, older = Date(recent), Date(older)
	switch p {
	case Weekly:
		return weekDistance(recent, older)
	case Monthly:
		return (recent.Year()-older.Year())*12 + int(recent.Month()) - int(older.Month())
	case Yearly:
		return recent.Year() - older.Year()
	default:
		return daysBetween(recent, older)
	}
}

// weekDistance counts the week boundaries crossed between the two dates.
// Weeks start on Sunday; dates less than seven days apart are always in the
// same period.
func weekDistance(recent, older time.Time) int {
	days := daysBetween(recent, older)
	if days < 7 {
		return 0
	}
	span := days - (weekPosition(recent) - 1) - (7 - weekPosition(older))
	return ceilDiv(span, 7)
}

// weekPosition is 1 for Sunday through 7 for Saturday.
func weekPosition(d time.Time) int {
	return int(d.Weekday()) + 1
}

func daysBetween(recent, older time.Time) int {
	return int((recent.Unix() - older.Unix()) / secondsPerDay)
}

func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a > 0 {
		q++
	}
	return q
}

const secondsPerDay = 24 * 60 * 60

// DateLayout is the storage format of a calendar date.
const DateLayout = "2006-01-02"

// Date returns midnight UTC of the calendar date t shows in its own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date. Single digit days and months are
// accepted because older stores contain them.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse(DateLayout, raw)
	if err == nil {
		return t, nil
	}
	if t, lerr := time.Parse("2006-1-2", raw); lerr == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
