package bot

import (
	"strings"
	"testing"
	"time"

	"habit-tracker/internal/habit"
	"habit-tracker/internal/service"
)

var testNow = time.Date(2024, 5, 30, 10, 0, 0, 0, time.UTC)

func mustLoad(t *testing.T, name, periodicity, history string) *habit.Habit {
	t.Helper()
	h, err := habit.Load(name, "", periodicity, "2024-05-01", history)
	if err != nil {
		t.Fatalf("Load(%s): %v", name, err)
	}
	return h
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data       string
		wantPrefix string
		wantName   string
		wantOK     bool
	}{
		{"check:water", cbCheckPrefix, "water", true},
		{"uncheck:read a book", cbUncheckPrefix, "read a book", true},
		{"stats:gym", cbStatsPrefix, "gym", true},
		{"check:", cbCheckPrefix, "", false},
		{"complete:12", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			prefix, name, ok := parseCallback(tt.data)
			if prefix != tt.wantPrefix || name != tt.wantName || ok != tt.wantOK {
				t.Errorf("parseCallback(%q) = %q, %q, %v; want %q, %q, %v",
					tt.data, prefix, name, ok, tt.wantPrefix, tt.wantName, tt.wantOK)
			}
		})
	}
}

func TestCallbackDataLimit(t *testing.T) {
	if data, ok := callbackData(cbCheckPrefix, "water"); !ok || data != "check:water" {
		t.Errorf("callbackData = %q, %v", data, ok)
	}
	long := strings.Repeat("x", maxCallbackData)
	if _, ok := callbackData(cbCheckPrefix, long); ok {
		t.Error("callbackData accepted data over the Telegram limit")
	}
}

func TestHabitListView(t *testing.T) {
	done := mustLoad(t, "water", "daily", "2024-05-29,2024-05-30")
	open := mustLoad(t, "gym", "weekly", "2024-05-20")
	tooLong := mustLoad(t, strings.Repeat("y", maxCallbackData), "daily", "")

	text, markup := habitListView([]*habit.Habit{open, done, tooLong}, testNow)

	for _, want := range []string{"⏳ <b>gym</b> <i>(weekly)</i> · 🔥 1", "✅ <b>water</b> <i>(daily)</i> · 🔥 2"} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}
	if markup == nil {
		t.Fatal("markup is nil")
	}
	rows := markup.InlineKeyboard
	if len(rows) != 2 {
		t.Fatalf("got %d button rows, want 2", len(rows))
	}
	if got := *rows[0][0].CallbackData; got != "check:gym" {
		t.Errorf("first button = %q, want check:gym", got)
	}
	if got := *rows[1][0].CallbackData; got != "uncheck:water" {
		t.Errorf("second button = %q, want uncheck:water", got)
	}
	if got := *rows[1][1].CallbackData; got != "stats:water" {
		t.Errorf("stats button = %q, want stats:water", got)
	}
}

func TestHabitListViewEmpty(t *testing.T) {
	text, markup := habitListView(nil, testNow)
	if markup != nil {
		t.Error("expected no markup for an empty list")
	}
	if !strings.Contains(text, "/newhabit") {
		t.Errorf("text = %q, want a hint to /newhabit", text)
	}
}

func TestFormatHabitLineIrregular(t *testing.T) {
	h := mustLoad(t, "bad", "daily", "2024-05-29,2024-05-20")
	got := formatHabitLine(h, testNow)
	if !strings.Contains(got, "history inconsistent") {
		t.Errorf("formatHabitLine = %q", got)
	}
}

func TestFormatReport(t *testing.T) {
	r := service.HabitReport{
		Name:          "a<b",
		Description:   "drink",
		Periodicity:   habit.Daily,
		CreationDate:  "2024-05-15",
		CheckedOff:    true,
		CurrentStreak: 3,
		LongestStreak: 4,
		LongestBreak:  2,
		TotalBreaks:   1,
		CheckOffs:     7,
		Duration:      16,
	}
	got := formatReport(r)
	for _, want := range []string{
		"<b>a&lt;b</b>",
		"daily since 2024-05-15",
		"Checked off for this period",
		"Current streak: 3",
		"Longest streak: 4",
		"Longest break: 2",
		"Total breaks: 1",
		"Check-offs: 7 of 16",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("formatReport missing %q:\n%s", want, got)
		}
	}
}

func TestFormatAnalytics(t *testing.T) {
	reports := []service.HabitReport{
		{Name: "water", Periodicity: habit.Daily, CurrentStreak: 2},
		{Name: "gym", Periodicity: habit.Weekly, CurrentStreak: 1},
	}
	got := formatAnalytics(reports, []string{"bad"})

	daily := strings.Index(got, "<b>daily</b>")
	weekly := strings.Index(got, "<b>weekly</b>")
	if daily < 0 || weekly < 0 || daily > weekly {
		t.Errorf("periodicity sections missing or out of order:\n%s", got)
	}
	if strings.Contains(got, "<b>monthly</b>") {
		t.Errorf("empty section rendered:\n%s", got)
	}
	if !strings.Contains(got, "• bad: consider /reset bad") {
		t.Errorf("irregular habit missing:\n%s", got)
	}
}

func TestShortTitle(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"water", 10, "water"},
		{"meditate daily", 8, "meditat…"},
		{"line\nbreak", 20, "line break"},
		{"ab", 1, "a"},
	}
	for _, tt := range tests {
		if got := shortTitle(tt.in, tt.max); got != tt.want {
			t.Errorf("shortTitle(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestInputPredicates(t *testing.T) {
	if !isConfirmInput(btnConfirm) || !isConfirmInput(" YES ") || isConfirmInput("maybe") {
		t.Error("isConfirmInput")
	}
	if !isCancelInput(btnCancel) || !isCancelInput("no") || isCancelInput(btnConfirm) {
		t.Error("isCancelInput")
	}
	if !isSkipInput(btnSkip) || !isSkipInput("-") || isSkipInput("walk") {
		t.Error("isSkipInput")
	}
	if !isCancelDialogInput(btnCancelDialog) || isCancelDialogInput(btnCancel) {
		t.Error("isCancelDialogInput")
	}
}

func TestPeriodicityKeyboardParses(t *testing.T) {
	kb := periodicityKeyboard()
	for _, button := range kb.Keyboard[0] {
		if _, err := habit.ParsePeriodicity(button.Text); err != nil {
			t.Errorf("button %q does not parse: %v", button.Text, err)
		}
	}
	if len(kb.Keyboard[0]) != len(habit.Periodicities) {
		t.Errorf("got %d periodicity buttons, want %d", len(kb.Keyboard[0]), len(habit.Periodicities))
	}
}
