package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"habit-tracker/internal/habit"
	"habit-tracker/internal/model"
)

var (
	ErrHabitExists   = errors.New("habit already exists")
	ErrHabitNotFound = errors.New("habit not found")
)

// HabitStore persists habits. repository.HabitRepository implements it.
type HabitStore interface {
	Initialize(ctx context.Context) error
	Insert(ctx context.Context, h *habit.Habit) error
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
	Rename(ctx context.Context, oldName string, h *habit.Habit) error
	LoadAll(ctx context.Context) ([]model.HabitRecord, error)
	LoadAllHistory(ctx context.Context) ([]model.HabitHistoryRecord, error)
	UpdateData(ctx context.Context, h *habit.Habit) error
	UpdateHistory(ctx context.Context, h *habit.Habit) error
}

// HabitService keeps the tracked habits in memory and writes every change
// through to the store. The CLI, the bot and the reminder job share one
// instance, so access is serialised.
type HabitService struct {
	store  HabitStore
	logger *zap.Logger
	seed   bool
	now    func() time.Time

	mu     sync.Mutex
	habits map[string]*habit.Habit
}

func NewHabitService(store HabitStore, logger *zap.Logger, seed bool) *HabitService {
	return &HabitService{
		store:  store,
		logger: logger,
		seed:   seed,
		now:    time.Now,
		habits: make(map[string]*habit.Habit),
	}
}

// SetClock replaces the source of the current time.
func (s *HabitService) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Now returns the current time as seen by the service.
func (s *HabitService) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

// Load initialises the store and reads every habit from it. An empty store
// is filled with the sample habits when seeding is enabled.
func (s *HabitService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Initialize(ctx); err != nil {
		return err
	}

	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	habits := make(map[string]*habit.Habit, len(records))
	for _, rec := range records {
		h, err := habit.Load(rec.Name, rec.Description, rec.Periodicity, rec.CreationDate, "")
		if err != nil {
			return err
		}
		habits[rec.Name] = h
	}

	histories, err := s.store.LoadAllHistory(ctx)
	if err != nil {
		return err
	}
	for _, rec := range histories {
		h, ok := habits[rec.Name]
		if !ok {
			s.logger.Warn("History without habit", zap.String("name", rec.Name))
			continue
		}
		if err := h.SetHistory(rec.History); err != nil {
			s.logger.Warn("Unreadable history, habit needs a reset",
				zap.String("name", rec.Name),
				zap.String("history", rec.History),
				zap.Error(err),
			)
			h.MarkUnreadable()
		}
	}
	s.habits = habits

	if len(s.habits) == 0 && s.seed {
		s.logger.Info("Store is empty, adding sample habits")
		for _, h := range SampleHabits() {
			if err := s.insertLocked(ctx, h); err != nil {
				return fmt.Errorf("seed sample habits: %w", err)
			}
		}
	}

	s.logger.Info("Habits loaded", zap.Int("count", len(s.habits)))
	return nil
}

// Exists reports whether the habit is tracked in memory and in the store.
func (s *HabitService) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existsLocked(ctx, name)
}

func (s *HabitService) existsLocked(ctx context.Context, name string) (bool, error) {
	if _, ok := s.habits[name]; !ok {
		return false, nil
	}
	return s.store.Exists(ctx, name)
}

// Add creates a habit dated today. history may be empty.
func (s *HabitService) Add(ctx context.Context, name, description string, p habit.Periodicity, history string) (*habit.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if !p.Valid() {
		return nil, fmt.Errorf("unknown periodicity %q", p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := habit.New(name, strings.TrimSpace(description), p, s.now())
	if err := h.SetHistory(history); err != nil {
		return nil, err
	}
	if err := s.insertLocked(ctx, h); err != nil {
		return nil, err
	}
	return h.Clone(), nil
}

// AddHabit stores a habit built by the caller.
func (s *HabitService) AddHabit(ctx context.Context, h *habit.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(ctx, h.Clone())
}

func (s *HabitService) insertLocked(ctx context.Context, h *habit.Habit) error {
	exists, err := s.existsLocked(ctx, h.Name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%q: %w", h.Name, ErrHabitExists)
	}
	if err := s.store.Insert(ctx, h); err != nil {
		return err
	}
	s.habits[h.Name] = h
	s.logger.Info("Habit added", zap.String("name", h.Name), zap.String("periodicity", h.Periodicity.String()))
	return nil
}

// Delete removes the habit from memory and store.
func (s *HabitService) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(ctx, name); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, name); err != nil {
		return err
	}
	delete(s.habits, name)
	return nil
}

// Rename moves a habit to a new name, keeping everything else.
func (s *HabitService) Rename(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(ctx, oldName); err != nil {
		return err
	}
	exists, err := s.existsLocked(ctx, newName)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%q: %w", newName, ErrHabitExists)
	}

	renamed := s.habits[oldName].Clone()
	renamed.Name = newName
	if err := s.store.Rename(ctx, oldName, renamed); err != nil {
		return err
	}
	delete(s.habits, oldName)
	s.habits[newName] = renamed
	return nil
}

// EditDescription replaces the description.
func (s *HabitService) EditDescription(ctx context.Context, name, description string) error {
	return s.update(ctx, name, func(h *habit.Habit) error {
		h.Description = strings.TrimSpace(description)
		return s.store.UpdateData(ctx, h)
	})
}

// EditPeriodicity changes the cadence and drops the history.
func (s *HabitService) EditPeriodicity(ctx context.Context, name string, p habit.Periodicity) error {
	if !p.Valid() {
		return fmt.Errorf("unknown periodicity %q", p)
	}
	return s.update(ctx, name, func(h *habit.Habit) error {
		h.SetPeriodicity(p)
		if err := s.store.UpdateData(ctx, h); err != nil {
			return err
		}
		return s.store.UpdateHistory(ctx, h)
	})
}

// Reset clears the history.
func (s *HabitService) Reset(ctx context.Context, name string) error {
	return s.update(ctx, name, func(h *habit.Habit) error {
		h.Reset()
		return s.store.UpdateHistory(ctx, h)
	})
}

// SetHistory replaces the history with a comma separated date list.
func (s *HabitService) SetHistory(ctx context.Context, name, history string) error {
	return s.update(ctx, name, func(h *habit.Habit) error {
		if err := h.SetHistory(history); err != nil {
			return err
		}
		return s.store.UpdateHistory(ctx, h)
	})
}

// CheckOff checks off every listed habit for the current period. Unknown
// names are skipped. It returns false for an empty list.
func (s *HabitService) CheckOff(ctx context.Context, names ...string) (bool, error) {
	if len(names) == 0 {
		return false, nil
	}
	for _, name := range names {
		err := s.update(ctx, name, func(h *habit.Habit) error {
			if !h.CheckOff(s.now()) {
				return nil
			}
			s.logger.Info("Habit checked off", zap.String("name", name))
			return s.store.UpdateHistory(ctx, h)
		})
		if errors.Is(err, ErrHabitNotFound) {
			s.logger.Warn("Skipping unknown habit", zap.String("name", name))
			continue
		}
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// Uncheck removes the current period's check-off. It returns false when
// the habit was not checked off.
func (s *HabitService) Uncheck(ctx context.Context, name string) (bool, error) {
	var changed bool
	err := s.update(ctx, name, func(h *habit.Habit) error {
		if changed = h.UncheckOff(s.now()); !changed {
			return nil
		}
		s.logger.Info("Habit unchecked", zap.String("name", name))
		return s.store.UpdateHistory(ctx, h)
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// Get returns a copy of the named habit.
func (s *HabitService) Get(name string) (*habit.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrHabitNotFound)
	}
	return h.Clone(), nil
}

// Habits returns copies of all habits ordered by name.
func (s *HabitService) Habits() []*habit.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*habit.Habit, 0, len(s.habits))
	for _, h := range s.habits {
		out = append(out, h.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// update applies fn to a copy of the habit and keeps the copy only if fn,
// including its store writes, succeeds.
func (s *HabitService) update(ctx context.Context, name string, fn func(h *habit.Habit) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(ctx, name); err != nil {
		return err
	}
	h := s.habits[name].Clone()
	if err := fn(h); err != nil {
		return err
	}
	s.habits[name] = h
	return nil
}

func (s *HabitService) requireLocked(ctx context.Context, name string) error {
	exists, err := s.existsLocked(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%q: %w", name, ErrHabitNotFound)
	}
	return nil
}
