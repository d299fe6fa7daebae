package service

import (
	"errors"
	"sort"
	"time"

	"habit-tracker/internal/habit"
)

// HabitReport is the full analytics row of one habit.
type HabitReport struct {
	Name          string
	Description   string
	Periodicity   habit.Periodicity
	CreationDate  string
	CheckedOff    bool
	CurrentStreak int
	LongestStreak int
	LongestBreak  int
	TotalBreaks   int
	CheckOffs     int
	Duration      int
}

// BuildReport computes every statistic of h as of now. An irregular history
// fails the whole report.
func BuildReport(h *habit.Habit, now time.Time) (HabitReport, error) {
	r := HabitReport{
		Name:         h.Name,
		Description:  h.Description,
		Periodicity:  h.Periodicity,
		CreationDate: h.CreationDate(),
		CheckedOff:   h.IsCheckedOff(now),
	}
	var err error
	if r.CurrentStreak, r.LongestStreak, err = h.Streak(now); err != nil {
		return HabitReport{}, err
	}
	if r.LongestBreak, r.TotalBreaks, err = h.Breaks(now); err != nil {
		return HabitReport{}, err
	}
	if r.CheckOffs, r.Duration, err = h.Stats(now); err != nil {
		return HabitReport{}, err
	}
	return r, nil
}

// BuildReports reports every habit, highest current streak first.
func BuildReports(habits []*habit.Habit, now time.Time) ([]HabitReport, error) {
	reports := make([]HabitReport, 0, len(habits))
	for _, h := range habits {
		r, err := BuildReport(h, now)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	sortReports(reports)
	return reports, nil
}

// PartitionReports reports every habit like BuildReports but sets habits
// with an irregular history aside instead of failing.
func PartitionReports(habits []*habit.Habit, now time.Time) (reports []HabitReport, irregular []string, err error) {
	for _, h := range habits {
		r, err := BuildReport(h, now)
		var irr *habit.IrregularHistoryError
		switch {
		case errors.As(err, &irr):
			irregular = append(irregular, h.Name)
			continue
		case err != nil:
			return nil, nil, err
		}
		reports = append(reports, r)
	}
	sortReports(reports)
	return reports, irregular, nil
}

func sortReports(reports []HabitReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CurrentStreak > reports[j].CurrentStreak
	})
}

// FilterReports keeps the reports with periodicity p, order unchanged.
func FilterReports(reports []HabitReport, p habit.Periodicity) []HabitReport {
	var out []HabitReport
	for _, r := range reports {
		if r.Periodicity == p {
			out = append(out, r)
		}
	}
	return out
}

func TrackedNames(habits []*habit.Habit) []string {
	return names(habits, func(*habit.Habit) bool { return true })
}

func CheckedNames(habits []*habit.Habit, now time.Time) []string {
	return names(habits, func(h *habit.Habit) bool { return h.IsCheckedOff(now) })
}

func UncheckedNames(habits []*habit.Habit, now time.Time) []string {
	return names(habits, func(h *habit.Habit) bool { return !h.IsCheckedOff(now) })
}

func NamesWithPeriodicity(habits []*habit.Habit, p habit.Periodicity) []string {
	return names(habits, func(h *habit.Habit) bool { return h.Periodicity == p })
}

func names(habits []*habit.Habit, keep func(*habit.Habit) bool) []string {
	out := []string{}
	for _, h := range habits {
		if keep(h) {
			out = append(out, h.Name)
		}
	}
	return out
}

// Truncate shortens s to at most n runes, ending in "..." when cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
