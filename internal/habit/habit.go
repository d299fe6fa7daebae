// Package habit holds the habit aggregate and the period arithmetic behind
// its streak and break analytics.
package habit

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Habit is a named recurring activity and its check-off history.
// History dates are unique and ascending.
type Habit struct {
	Name        string
	Description string
	Periodicity Periodicity
	CreatedOn   time.Time
	history     []time.Time
	// unreadable is set when the stored history could not be parsed. Such
	// a habit reports an irregular history until it is reset or replaced.
	unreadable bool
}

// New creates a habit without history. An empty periodicity means daily.
func New(name, description string, p Periodicity, createdOn time.Time) *Habit {
	if p == "" {
		p = Daily
	}
	return &Habit{
		Name:        name,
		Description: description,
		Periodicity: p,
		CreatedOn:   Date(createdOn),
	}
}

// Load rebuilds a habit from its stored string fields.
func Load(name, description, periodicity, creationDate, history string) (*Habit, error) {
	p, err := ParsePeriodicity(periodicity)
	if err != nil {
		return nil, fmt.Errorf("habit %q: %w", name, err)
	}
	created, err := ParseDate(creationDate)
	if err != nil {
		return nil, fmt.Errorf("habit %q: creation date: %w", name, err)
	}
	h := New(name, description, p, created)
	if err := h.SetHistory(history); err != nil {
		return nil, err
	}
	return h, nil
}

// Clone returns a deep copy.
func (h *Habit) Clone() *Habit {
	c := *h
	c.history = slices.Clone(h.history)
	return &c
}

// History returns a copy of the check-off dates.
func (h *Habit) History() []time.Time {
	return slices.Clone(h.history)
}

// HistoryString renders the history as comma separated YYYY-MM-DD dates.
func (h *Habit) HistoryString() string {
	parts := make([]string, len(h.history))
	for i, d := range h.history {
		parts[i] = FormatDate(d)
	}
	return strings.Join(parts, ",")
}

// SetHistory replaces the history with the dates in raw. An empty string
// clears it. The order of raw is kept as is; a history that is out of order
// shows up later as an IrregularHistoryError.
func (h *Habit) SetHistory(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		h.history = nil
		return nil
	}
	fields := strings.Split(raw, ",")
	dates := make([]time.Time, 0, len(fields))
	for _, f := range fields {
		d, err := ParseDate(f)
		if err != nil {
			return fmt.Errorf("habit %q: history: %w", h.Name, err)
		}
		dates = append(dates, d)
	}
	h.history = dates
	h.unreadable = false
	return nil
}

// MarkUnreadable drops a history that could not be parsed. The habit stays
// tracked but its analytics fail with an IrregularHistoryError and it
// cannot be checked off until the history is reset or set again.
func (h *Habit) MarkUnreadable() {
	h.history = nil
	h.unreadable = true
}

// Unreadable reports whether the stored history could not be parsed.
func (h *Habit) Unreadable() bool {
	return h.unreadable
}

// Reset clears the history.
func (h *Habit) Reset() {
	h.history = nil
	h.unreadable = false
}

// SetPeriodicity changes the cadence. The old entries are measured in the
// old unit, so the history is cleared.
func (h *Habit) SetPeriodicity(p Periodicity) {
	h.Periodicity = p
	h.history = nil
	h.unreadable = false
}

// CreationDate returns the creation date as YYYY-MM-DD.
func (h *Habit) CreationDate() string {
	return FormatDate(h.CreatedOn)
}

// CheckOffs is the number of recorded check-offs.
func (h *Habit) CheckOffs() int {
	return len(h.history)
}

// LastCheckOff returns the most recent entry, if any.
func (h *Habit) LastCheckOff() (time.Time, bool) {
	if len(h.history) == 0 {
		return time.Time{}, false
	}
	return h.history[len(h.history)-1], true
}

// IsCheckedOff reports whether the period containing now has a check-off.
func (h *Habit) IsCheckedOff(now time.Time) bool {
	if h.unreadable {
		return false
	}
	last, ok := h.LastCheckOff()
	if !ok {
		return false
	}
	return h.Periodicity.Distance(now, last) == 0
}

// CheckOff records now unless the current period is already checked off.
// It reports whether the history changed.
func (h *Habit) CheckOff(now time.Time) bool {
	if h.unreadable || h.IsCheckedOff(now) {
		return false
	}
	today := Date(now)
	if last, ok := h.LastCheckOff(); ok && today.Before(last) {
		return false
	}
	h.history = append(h.history, today)
	return true
}

// UncheckOff drops the latest entry if it belongs to the current period.
func (h *Habit) UncheckOff(now time.Time) bool {
	if !h.IsCheckedOff(now) {
		return false
	}
	h.history = h.history[:len(h.history)-1]
	return true
}

// Streak returns the current and longest streak as of now.
func (h *Habit) Streak(now time.Time) (current, longest int, err error) {
	if h.unreadable {
		return 0, 0, &IrregularHistoryError{Habit: h.Name}
	}
	current, longest, err = Streak(h.history, h.Periodicity, now)
	return current, longest, h.wrap(err)
}

// Breaks returns the longest break and the number of breaks as of now.
func (h *Habit) Breaks(now time.Time) (longest, total int, err error) {
	if h.unreadable {
		return 0, 0, &IrregularHistoryError{Habit: h.Name}
	}
	longest, total, err = Breaks(h.history, h.Periodicity, now)
	return longest, total, h.wrap(err)
}

// Stats returns the number of check-offs and the number of periods since
// creation, the creation period included. A habit without history reports
// zero for both.
func (h *Habit) Stats(now time.Time) (checkOffs, duration int, err error) {
	if h.unreadable {
		return 0, 0, &IrregularHistoryError{Habit: h.Name}
	}
	if len(h.history) == 0 {
		return 0, 0, nil
	}
	d := h.Periodicity.Distance(now, h.CreatedOn)
	if d < 0 {
		return 0, 0, &IrregularHistoryError{Habit: h.Name}
	}
	return len(h.history), d + 1, nil
}
