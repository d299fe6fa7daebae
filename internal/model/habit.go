package model

import "time"

// HabitRecord is one row of habit_data, keyed by the habit name.
type HabitRecord struct {
	Name         string `gorm:"column:habit_name;primaryKey"`
	Description  string `gorm:"column:descr"`
	Periodicity  string `gorm:"not null;default:daily"`
	CreationDate string `gorm:"not null"` // YYYY-MM-DD
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (HabitRecord) TableName() string { return "habit_data" }

// HabitHistoryRecord keeps the check-off dates of a habit as a comma
// separated YYYY-MM-DD list, empty when there are none.
type HabitHistoryRecord struct {
	Name      string `gorm:"column:habit_name;primaryKey"`
	History   string `gorm:"not null;default:''"`
	UpdatedAt time.Time
}

func (HabitHistoryRecord) TableName() string { return "habit_history" }
