package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"habit-tracker/internal/habit"
	"habit-tracker/internal/service"
)

const (
	nameWidth        = 30
	descriptionWidth = 40
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("12"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

const legend = "🔥 current streak · 🌻 longest streak · ❄️ longest break · ❄️❄️❄️ total breaks · ✨ check-offs · ⏰ periods since creation"

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func checkMark(done bool) string {
	if done {
		return "✓"
	}
	return " "
}

func itoa(n int) string { return strconv.Itoa(n) }

// renderHabitList is the overview printed by "list" and on shell start.
func renderHabitList(w io.Writer, habits []*habit.Habit, now time.Time) {
	fmt.Fprintf(w, "You are tracking %d habits! Let's do more!\n", len(habits))
	if len(habits) == 0 {
		return
	}

	rows := make([][]string, 0, len(habits))
	var irregular []string
	for _, h := range habits {
		current, longest := "?", "?"
		if c, l, err := h.Streak(now); err == nil {
			current, longest = itoa(c), itoa(l)
		} else {
			irregular = append(irregular, h.Name)
		}
		rows = append(rows, []string{
			checkMark(h.IsCheckedOff(now)),
			service.Truncate(h.Name, nameWidth),
			service.Truncate(h.Description, descriptionWidth),
			h.Periodicity.String(),
			current,
			longest,
		})
	}
	fmt.Fprintln(w, renderTable([]string{"", "Habit", "Description", "Periodicity", "🔥", "🌻"}, rows))
	renderIrregular(w, irregular)
}

// renderAnalytics prints one table per periodicity that has habits.
func renderAnalytics(w io.Writer, reports []service.HabitReport, irregular []string) {
	for _, p := range habit.Periodicities {
		group := service.FilterReports(reports, p)
		if len(group) == 0 {
			continue
		}
		rows := make([][]string, 0, len(group))
		for _, r := range group {
			rows = append(rows, []string{
				service.Truncate(r.Name, nameWidth),
				itoa(r.CurrentStreak),
				itoa(r.LongestStreak),
				itoa(r.LongestBreak),
				itoa(r.TotalBreaks),
				itoa(r.CheckOffs),
				itoa(r.Duration),
			})
		}
		fmt.Fprintln(w, titleStyle.Render(capitalize(p.String())+" habits"))
		fmt.Fprintln(w, renderTable([]string{"Habit", "🔥", "🌻", "❄️", "❄️❄️❄️", "✨", "⏰"}, rows))
	}
	if len(reports) > 0 {
		fmt.Fprintln(w, legend)
	}
	renderIrregular(w, irregular)
}

// renderReport prints every statistic of a single habit.
func renderReport(w io.Writer, r service.HabitReport) {
	rows := [][]string{
		{"Description", r.Description},
		{"Periodicity", r.Periodicity.String()},
		{"Created on", r.CreationDate},
		{"Checked off", checkMark(r.CheckedOff)},
		{"🔥 Current streak", itoa(r.CurrentStreak)},
		{"🌻 Longest streak", itoa(r.LongestStreak)},
		{"❄️ Longest break", itoa(r.LongestBreak)},
		{"❄️❄️❄️ Total breaks", itoa(r.TotalBreaks)},
		{"✨ Check-offs", itoa(r.CheckOffs)},
		{"⏰ Periods since creation", itoa(r.Duration)},
	}
	fmt.Fprintln(w, titleStyle.Render(r.Name))
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows))
}

func renderIrregular(w io.Writer, names []string) {
	for _, name := range names {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("history of %s is inconsistent, consider resetting it", name)))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
