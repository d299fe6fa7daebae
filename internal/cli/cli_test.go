package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"habit-tracker/internal/habit"
	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/service"
)

var testNow = time.Date(2024, 5, 30, 10, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, dbPath string) *app {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HABITS_LOG_FILE", filepath.Join(dir, "habits.log"))
	t.Setenv("HABITS_SEED_SAMPLES", "false")
	if dbPath == "" {
		dbPath = filepath.Join(dir, "habits.db")
	}
	a := &app{dbPath: dbPath, clock: func() time.Time { return testNow }}
	t.Cleanup(a.close)
	return a
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, a *app, args ...string) string {
	t.Helper()
	out, err := run(t, a, args...)
	if err != nil {
		t.Fatalf("habits %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestAddListAndCheck(t *testing.T) {
	a := newTestApp(t, "")

	out := mustRun(t, a, "add", "water", "-d", "drink 2 liters", "-p", "daily")
	if !strings.Contains(out, `Added daily habit "water"`) {
		t.Errorf("add output = %q", out)
	}
	mustRun(t, a, "add", "gym", "--periodicity", "WEEKLY")

	out = mustRun(t, a, "list")
	for _, want := range []string{"You are tracking 2 habits!", "water", "drink 2 liters", "weekly"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, a, "check", "water", "missing")
	if !strings.Contains(out, "Skipping missing: not tracked") {
		t.Errorf("check output does not mention the unknown habit:\n%s", out)
	}
	if out := mustRun(t, a, "history", "water"); strings.TrimSpace(out) != "2024-05-30" {
		t.Errorf("history after check = %q, want 2024-05-30", out)
	}

	mustRun(t, a, "check", "water")
	if out := mustRun(t, a, "history", "water"); strings.TrimSpace(out) != "2024-05-30" {
		t.Errorf("history after a second check = %q, want a single entry", out)
	}

	mustRun(t, a, "check", "--all")
	if out := mustRun(t, a, "history", "gym"); strings.TrimSpace(out) != "2024-05-30" {
		t.Errorf("gym history after check --all = %q", out)
	}

	out = mustRun(t, a, "uncheck", "water")
	if !strings.Contains(out, "Unchecked water") {
		t.Errorf("uncheck output = %q", out)
	}
	if out := mustRun(t, a, "history", "water"); strings.TrimSpace(out) != "" {
		t.Errorf("history after uncheck = %q, want empty", out)
	}
}

func TestLogicalFailures(t *testing.T) {
	a := newTestApp(t, "")
	mustRun(t, a, "add", "water")
	mustRun(t, a, "add", "other")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"duplicate add", []string{"add", "water"}, service.ErrHabitExists},
		{"uncheck missing", []string{"uncheck", "nope"}, service.ErrHabitNotFound},
		{"show missing", []string{"show", "nope"}, service.ErrHabitNotFound},
		{"rename missing", []string{"rename", "nope", "other"}, service.ErrHabitNotFound},
		{"rename onto existing", []string{"rename", "other", "water"}, service.ErrHabitExists},
		{"delete missing", []string{"delete", "nope"}, service.ErrHabitNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, a, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := run(t, a, "add", "x", "-p", "hourly"); err == nil {
		t.Error("add with unknown periodicity succeeded")
	}
	if _, err := run(t, a, "check"); err == nil {
		t.Error("check without names succeeded")
	}
}

func TestEditCommands(t *testing.T) {
	a := newTestApp(t, "")
	mustRun(t, a, "add", "walk", "--history", "2024-05-28,2024-05-29")

	mustRun(t, a, "describe", "walk", "around", "the", "block")
	mustRun(t, a, "rename", "walk", "stroll")
	h, err := a.habits.Get("stroll")
	if err != nil {
		t.Fatalf("Get(stroll): %v", err)
	}
	if h.Description != "around the block" || h.HistoryString() != "2024-05-28,2024-05-29" {
		t.Errorf("renamed habit = %q / %q", h.Description, h.HistoryString())
	}

	if _, err := run(t, a, "periodicity", "stroll", "weekly"); err == nil {
		t.Error("periodicity change without --yes succeeded")
	}
	mustRun(t, a, "periodicity", "stroll", "weekly", "--yes")
	h, _ = a.habits.Get("stroll")
	if h.Periodicity != habit.Weekly || h.CheckOffs() != 0 {
		t.Errorf("after periodicity change: %s with %d check-offs", h.Periodicity, h.CheckOffs())
	}

	mustRun(t, a, "history", "stroll", "--set", "2024-05-13,2024-05-20")
	mustRun(t, a, "reset", "stroll")
	if out := mustRun(t, a, "history", "stroll"); strings.TrimSpace(out) != "" {
		t.Errorf("history after reset = %q", out)
	}

	mustRun(t, a, "delete", "stroll")
	if _, err := a.habits.Get("stroll"); !errors.Is(err, service.ErrHabitNotFound) {
		t.Errorf("Get after delete: %v", err)
	}
}

func TestChangesPersist(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "habits.db")

	first := newTestApp(t, dbPath)
	mustRun(t, first, "add", "read", "-p", "monthly", "--history", "2024-03-02,2024-04-11")
	mustRun(t, first, "check", "read")
	first.close()

	second := newTestApp(t, dbPath)
	out := mustRun(t, second, "history", "read")
	if strings.TrimSpace(out) != "2024-03-02,2024-04-11,2024-05-30" {
		t.Errorf("history in a new session = %q", out)
	}
}

func TestIrregularHistory(t *testing.T) {
	a := newTestApp(t, "")
	mustRun(t, a, "add", "good", "--history", "2024-05-29")
	mustRun(t, a, "add", "bad", "--history", "2024-05-29,2024-05-20")

	out := mustRun(t, a, "analytics")
	if !strings.Contains(out, "history of bad is inconsistent, consider resetting it") {
		t.Errorf("analytics does not flag bad:\n%s", out)
	}
	if !strings.Contains(out, "Daily habits") || !strings.Contains(out, "good") {
		t.Errorf("analytics lost the regular habit:\n%s", out)
	}

	_, err := run(t, a, "show", "bad")
	var irr *habit.IrregularHistoryError
	if !errors.As(err, &irr) || irr.Habit != "bad" {
		t.Fatalf("show bad: err = %v", err)
	}
	if msg := describe(err); !strings.Contains(msg, "consider resetting it") {
		t.Errorf("describe = %q", msg)
	}
}

func TestResetRecoversUnreadableHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "habits.db")
	a := newTestApp(t, dbPath)
	mustRun(t, a, "add", "water", "--history", "2024-05-29")
	mustRun(t, a, "add", "read")
	a.close()

	db, err := repository.NewDB(dbPath, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	res := db.Model(&model.HabitHistoryRecord{}).Where("habit_name = ?", "water").Update("history", "2024-05-29,29.05.2024")
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	if res.Error != nil {
		t.Fatalf("corrupt history: %v", res.Error)
	}

	b := newTestApp(t, dbPath)
	out := mustRun(t, b, "list")
	if !strings.Contains(out, "history of water is inconsistent, consider resetting it") || !strings.Contains(out, "read") {
		t.Errorf("list with an unreadable history:\n%s", out)
	}
	out = mustRun(t, b, "analytics")
	if !strings.Contains(out, "history of water is inconsistent") {
		t.Errorf("analytics does not flag water:\n%s", out)
	}

	mustRun(t, b, "reset", "water")
	mustRun(t, b, "check", "water")
	if out := mustRun(t, b, "history", "water"); strings.TrimSpace(out) != "2024-05-30" {
		t.Errorf("history after reset and check = %q, want 2024-05-30", out)
	}
}

func TestShowAndAnalytics(t *testing.T) {
	a := newTestApp(t, "")
	mustRun(t, a, "add", "water", "--history", "2024-05-27,2024-05-28,2024-05-29")
	mustRun(t, a, "add", "gym", "-p", "weekly")

	out := mustRun(t, a, "show", "water")
	for _, want := range []string{"water", "Current streak", "Periods since creation", "daily"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, a, "analytics", "-p", "weekly")
	if strings.Contains(out, "water") || !strings.Contains(out, "gym") {
		t.Errorf("filtered analytics:\n%s", out)
	}
}

func TestShell(t *testing.T) {
	a := newTestApp(t, "")
	if err := a.open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}

	input := strings.Join([]string{
		`add "read a book" -d "twenty pages"`,
		"bogus",
		"uncheck nobody",
		`check "read a book"`,
		"shell",
		`add "unterminated`,
		"",
		"exit",
		"list",
	}, "\n")

	var out bytes.Buffer
	if err := runShell(context.Background(), a, strings.NewReader(input), &out); err != nil {
		t.Fatalf("runShell: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"You are tracking 0 habits!",
		`Added daily habit "read a book"`,
		`Error: unknown command "bogus"`,
		"Error: \"nobody\": habit not found",
		"Error: already in the shell",
		"Error: parse",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("shell output missing %q:\n%s", want, text)
		}
	}
	if got := strings.Count(text, shellPrompt); got != 8 {
		t.Errorf("prompt printed %d times, want 8", got)
	}

	h, err := a.habits.Get("read a book")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !h.IsCheckedOff(testNow) {
		t.Error("habit was not checked off from the shell")
	}
}

func TestBotRequiresTelegramSettings(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("TELEGRAM_OWNER_ID", "")
	a := newTestApp(t, "")

	_, err := run(t, a, "bot")
	if err == nil || !strings.Contains(err.Error(), "TELEGRAM_TOKEN") {
		t.Errorf("bot without token: err = %v", err)
	}
}
