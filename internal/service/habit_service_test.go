package service

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"habit-tracker/internal/habit"
	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
)

var testNow = time.Date(2024, 5, 30, 10, 0, 0, 0, time.UTC)

func newTestRepository(t *testing.T, path string) *repository.HabitRepository {
	t.Helper()
	db, err := repository.NewDB(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repository.NewHabitRepository(db, zap.NewNop())
}

func newTestService(t *testing.T, seed bool) (*HabitService, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "habits.db")
	svc := NewHabitService(newTestRepository(t, path), zap.NewNop(), seed)
	svc.SetClock(func() time.Time { return testNow })
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return svc, path
}

func reload(t *testing.T, path string) *HabitService {
	t.Helper()
	svc := NewHabitService(newTestRepository(t, path), zap.NewNop(), false)
	svc.SetClock(func() time.Time { return testNow })
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return svc
}

func TestLoadSeedsEmptyStore(t *testing.T) {
	svc, path := newTestService(t, true)
	if got := len(svc.Habits()); got != len(SampleHabits()) {
		t.Fatalf("seeded %d habits, want %d", got, len(SampleHabits()))
	}

	again := reload(t, path)
	walk, err := again.Get("Take a short walk")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if walk.Periodicity != habit.Daily || walk.CreationDate() != "2024-05-14" || walk.CheckOffs() != 24 {
		t.Errorf("reloaded sample: %s %s %d", walk.Periodicity, walk.CreationDate(), walk.CheckOffs())
	}
}

func TestLoadWithoutSeed(t *testing.T) {
	svc, _ := newTestService(t, false)
	if got := len(svc.Habits()); got != 0 {
		t.Fatalf("Habits() = %d, want 0", got)
	}
}

func TestAddAndDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, path := newTestService(t, false)

	h, err := svc.Add(ctx, " stretch ", "morning", habit.Weekly, "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if h.Name != "stretch" || h.CreationDate() != "2024-05-30" {
		t.Errorf("Add returned %q created %s", h.Name, h.CreationDate())
	}
	if _, err := svc.Add(ctx, "stretch", "", habit.Daily, ""); !errors.Is(err, ErrHabitExists) {
		t.Errorf("duplicate Add error = %v, want ErrHabitExists", err)
	}
	if _, err := svc.Add(ctx, "  ", "", habit.Daily, ""); err == nil {
		t.Error("Add accepted an empty name")
	}

	ok, err := reload(t, path).Exists(ctx, "stretch")
	if err != nil || !ok {
		t.Errorf("Exists after reload = %v, %v", ok, err)
	}
}

func TestCheckOffAndUncheck(t *testing.T) {
	ctx := context.Background()
	svc, path := newTestService(t, false)
	if _, err := svc.Add(ctx, "water", "", habit.Daily, "2024-05-28,2024-05-29"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if ok, err := svc.CheckOff(ctx); ok || err != nil {
		t.Errorf("CheckOff() with no names = %v, %v", ok, err)
	}
	if ok, err := svc.CheckOff(ctx, "water", "missing"); !ok || err != nil {
		t.Fatalf("CheckOff = %v, %v", ok, err)
	}

	h := mustGet(t, reload(t, path), "water")
	if got := h.HistoryString(); got != "2024-05-28,2024-05-29,2024-05-30" {
		t.Errorf("persisted history = %q", got)
	}

	changed, err := svc.Uncheck(ctx, "water")
	if err != nil || !changed {
		t.Fatalf("Uncheck = %v, %v", changed, err)
	}
	changed, err = svc.Uncheck(ctx, "water")
	if err != nil || changed {
		t.Errorf("second Uncheck = %v, %v", changed, err)
	}
	if _, err := svc.Uncheck(ctx, "missing"); !errors.Is(err, ErrHabitNotFound) {
		t.Errorf("Uncheck(missing) error = %v, want ErrHabitNotFound", err)
	}

	h = mustGet(t, reload(t, path), "water")
	if got := h.HistoryString(); got != "2024-05-28,2024-05-29" {
		t.Errorf("persisted history after uncheck = %q", got)
	}
}

func TestEdits(t *testing.T) {
	ctx := context.Background()
	svc, path := newTestService(t, false)
	if _, err := svc.Add(ctx, "read", "books", habit.Daily, "2024-05-29"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := svc.Add(ctx, "walk", "", habit.Daily, ""); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := svc.Rename(ctx, "read", "walk"); !errors.Is(err, ErrHabitExists) {
		t.Errorf("Rename onto existing error = %v, want ErrHabitExists", err)
	}
	if err := svc.Rename(ctx, "nope", "other"); !errors.Is(err, ErrHabitNotFound) {
		t.Errorf("Rename of missing error = %v, want ErrHabitNotFound", err)
	}
	if err := svc.Rename(ctx, "read", "study"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if err := svc.EditDescription(ctx, "study", "papers"); err != nil {
		t.Fatalf("EditDescription: %v", err)
	}

	again := reload(t, path)
	study := mustGet(t, again, "study")
	if study.Description != "papers" || study.HistoryString() != "2024-05-29" || study.CreationDate() != "2024-05-30" {
		t.Errorf("study after rename: %q %q %s", study.Description, study.HistoryString(), study.CreationDate())
	}
	if _, err := again.Get("read"); !errors.Is(err, ErrHabitNotFound) {
		t.Errorf("Get(read) after rename error = %v", err)
	}

	if err := svc.EditPeriodicity(ctx, "study", habit.Monthly); err != nil {
		t.Fatalf("EditPeriodicity: %v", err)
	}
	study = mustGet(t, reload(t, path), "study")
	if study.Periodicity != habit.Monthly || study.CheckOffs() != 0 {
		t.Errorf("after EditPeriodicity: %s with %d entries", study.Periodicity, study.CheckOffs())
	}

	if err := svc.SetHistory(ctx, "walk", "2024-05-01,2024-05-02"); err != nil {
		t.Fatalf("SetHistory: %v", err)
	}
	if err := svc.Reset(ctx, "walk"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := mustGet(t, reload(t, path), "walk").HistoryString(); got != "" {
		t.Errorf("history after Reset = %q", got)
	}

	if err := svc.Delete(ctx, "walk"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, "walk"); !errors.Is(err, ErrHabitNotFound) {
		t.Errorf("second Delete error = %v, want ErrHabitNotFound", err)
	}
	if names := TrackedNames(reload(t, path).Habits()); !reflect.DeepEqual(names, []string{"study"}) {
		t.Errorf("tracked after delete = %v", names)
	}
}

type failingStore struct {
	*repository.HabitRepository
}

func (failingStore) UpdateHistory(context.Context, *habit.Habit) error {
	return errors.New("disk full")
}

func TestFailedWriteKeepsMemory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "habits.db")
	svc := NewHabitService(failingStore{newTestRepository(t, path)}, zap.NewNop(), false)
	svc.SetClock(func() time.Time { return testNow })
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := svc.Add(ctx, "water", "", habit.Daily, "2024-05-29"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := svc.CheckOff(ctx, "water"); err == nil {
		t.Fatal("CheckOff succeeded although the store failed")
	}
	if got := mustGet(t, svc, "water").HistoryString(); got != "2024-05-29" {
		t.Errorf("in-memory history changed after failed write: %q", got)
	}
}

// writeRawHistory stores history as is, bypassing the date validation of
// the habit package.
func writeRawHistory(t *testing.T, path, name, history string) {
	t.Helper()
	db, err := repository.NewDB(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()
	res := db.Model(&model.HabitHistoryRecord{}).Where("habit_name = ?", name).Update("history", history)
	if res.Error != nil || res.RowsAffected != 1 {
		t.Fatalf("write history of %q: %v (%d rows)", name, res.Error, res.RowsAffected)
	}
}

func TestLoadKeepsHabitWithUnreadableHistory(t *testing.T) {
	ctx := context.Background()
	svc, path := newTestService(t, false)
	for _, name := range []string{"water", "read"} {
		if _, err := svc.Add(ctx, name, "", habit.Daily, "2024-05-29"); err != nil {
			t.Fatalf("Add(%q): %v", name, err)
		}
	}
	writeRawHistory(t, path, "water", "2024-05-29,29.05.2024")

	core, logs := observer.New(zapcore.WarnLevel)
	svc = NewHabitService(newTestRepository(t, path), zap.New(core), false)
	svc.SetClock(func() time.Time { return testNow })
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load with an unreadable history: %v", err)
	}
	if logs.FilterField(zap.String("name", "water")).Len() != 1 {
		t.Errorf("expected one warning about water, got %v", logs.All())
	}

	water := mustGet(t, svc, "water")
	if !water.Unreadable() || water.CheckOffs() != 0 {
		t.Errorf("water: Unreadable() = %v, CheckOffs() = %d", water.Unreadable(), water.CheckOffs())
	}
	if got := mustGet(t, svc, "read").HistoryString(); got != "2024-05-29" {
		t.Errorf("read history = %q, want 2024-05-29", got)
	}

	reports, irregular, err := PartitionReports(svc.Habits(), testNow)
	if err != nil {
		t.Fatalf("PartitionReports: %v", err)
	}
	if !reflect.DeepEqual(irregular, []string{"water"}) || len(reports) != 1 || reports[0].Name != "read" {
		t.Errorf("PartitionReports() = %d reports, irregular %v", len(reports), irregular)
	}

	if err := svc.Reset(ctx, "water"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := svc.CheckOff(ctx, "water"); err != nil {
		t.Fatalf("CheckOff after Reset: %v", err)
	}
	water = mustGet(t, reload(t, path), "water")
	if water.Unreadable() || water.HistoryString() != "2024-05-30" {
		t.Errorf("reloaded water: Unreadable() = %v, history %q", water.Unreadable(), water.HistoryString())
	}
}

func mustGet(t *testing.T, svc *HabitService, name string) *habit.Habit {
	t.Helper()
	h, err := svc.Get(name)
	if err != nil {
		t.Fatalf("Get(%q): %v", name, err)
	}
	return h
}
