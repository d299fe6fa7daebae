package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"habit-tracker/internal/habit"
	"habit-tracker/internal/model"
)

// HabitRepository stores habits in the habit_data and habit_history tables.
// Every call runs in its own transaction.
type HabitRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewHabitRepository(db *gorm.DB, logger *zap.Logger) *HabitRepository {
	return &HabitRepository{db: db, logger: logger}
}

// Initialize creates the tables if they do not exist yet.
func (r *HabitRepository) Initialize(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&model.HabitRecord{}, &model.HabitHistoryRecord{}); err != nil {
		return fmt.Errorf("migrate db: %w", err)
	}
	return nil
}

// Insert stores a new habit and its history.
func (r *HabitRepository) Insert(ctx context.Context, h *habit.Habit) error {
	r.logger.Debug("Inserting habit",
		zap.String("name", h.Name),
		zap.String("periodicity", h.Periodicity.String()),
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insert(tx, h)
	})
	if err != nil {
		r.logger.Error("Failed to insert habit", zap.String("name", h.Name), zap.Error(err))
		return err
	}
	return nil
}

func insert(tx *gorm.DB, h *habit.Habit) error {
	data := dataRecord(h)
	if err := tx.Create(&data).Error; err != nil {
		return fmt.Errorf("insert habit %q: %w", h.Name, err)
	}
	hist := model.HabitHistoryRecord{Name: h.Name, History: h.HistoryString()}
	if err := tx.Create(&hist).Error; err != nil {
		return fmt.Errorf("insert history of %q: %w", h.Name, err)
	}
	return nil
}

// Exists reports whether a habit with this name is stored.
func (r *HabitRepository) Exists(ctx context.Context, name string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.HabitRecord{}).Where("habit_name = ?", name).Count(&n).Error; err != nil {
		return false, fmt.Errorf("find habit %q: %w", name, err)
	}
	return n > 0, nil
}

// Delete removes the habit and its history.
func (r *HabitRepository) Delete(ctx context.Context, name string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return remove(tx, name)
	})
	if err != nil {
		r.logger.Error("Failed to delete habit", zap.String("name", name), zap.Error(err))
		return err
	}
	r.logger.Info("Habit deleted", zap.String("name", name))
	return nil
}

func remove(tx *gorm.DB, name string) error {
	res := tx.Where("habit_name = ?", name).Delete(&model.HabitRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete habit %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete habit %q: %w", name, gorm.ErrRecordNotFound)
	}
	if err := tx.Where("habit_name = ?", name).Delete(&model.HabitHistoryRecord{}).Error; err != nil {
		return fmt.Errorf("delete history of %q: %w", name, err)
	}
	return nil
}

// Rename replaces the habit stored under oldName with h.
func (r *HabitRepository) Rename(ctx context.Context, oldName string, h *habit.Habit) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := remove(tx, oldName); err != nil {
			return err
		}
		return insert(tx, h)
	})
	if err != nil {
		r.logger.Error("Failed to rename habit",
			zap.String("old_name", oldName),
			zap.String("new_name", h.Name),
			zap.Error(err),
		)
		return err
	}
	r.logger.Info("Habit renamed", zap.String("old_name", oldName), zap.String("new_name", h.Name))
	return nil
}

// LoadAll returns every habit record ordered by name.
func (r *HabitRepository) LoadAll(ctx context.Context) ([]model.HabitRecord, error) {
	var records []model.HabitRecord
	if err := r.db.WithContext(ctx).Order("habit_name ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}
	r.logger.Debug("Loaded habits", zap.Int("count", len(records)))
	return records, nil
}

// LoadAllHistory returns the history row of every habit.
func (r *HabitRepository) LoadAllHistory(ctx context.Context) ([]model.HabitHistoryRecord, error) {
	var records []model.HabitHistoryRecord
	if err := r.db.WithContext(ctx).Order("habit_name ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load histories: %w", err)
	}
	return records, nil
}

// UpdateData writes description, periodicity and creation date of h.
func (r *HabitRepository) UpdateData(ctx context.Context, h *habit.Habit) error {
	data := dataRecord(h)
	res := r.db.WithContext(ctx).Model(&model.HabitRecord{}).Where("habit_name = ?", h.Name).
		Updates(map[string]interface{}{
			"descr":         data.Description,
			"periodicity":   data.Periodicity,
			"creation_date": data.CreationDate,
		})
	if res.Error != nil {
		r.logger.Error("Failed to update habit", zap.String("name", h.Name), zap.Error(res.Error))
		return fmt.Errorf("update habit %q: %w", h.Name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update habit %q: %w", h.Name, gorm.ErrRecordNotFound)
	}
	return nil
}

// UpdateHistory writes the history of h.
func (r *HabitRepository) UpdateHistory(ctx context.Context, h *habit.Habit) error {
	res := r.db.WithContext(ctx).Model(&model.HabitHistoryRecord{}).Where("habit_name = ?", h.Name).
		Update("history", h.HistoryString())
	if res.Error != nil {
		r.logger.Error("Failed to update history", zap.String("name", h.Name), zap.Error(res.Error))
		return fmt.Errorf("update history of %q: %w", h.Name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update history of %q: %w", h.Name, gorm.ErrRecordNotFound)
	}
	r.logger.Debug("History updated", zap.String("name", h.Name), zap.Int("entries", h.CheckOffs()))
	return nil
}

func dataRecord(h *habit.Habit) model.HabitRecord {
	return model.HabitRecord{
		Name:         h.Name,
		Description:  h.Description,
		Periodicity:  h.Periodicity.String(),
		CreationDate: h.CreationDate(),
	}
}
