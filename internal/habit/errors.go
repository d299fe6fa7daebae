package habit

import (
	"errors"
	"fmt"
)

// ErrIrregularHistory is returned by the analytics when a period distance
// comes out negative.
var ErrIrregularHistory = errors.New("irregular dates in history")

// IrregularHistoryError ties ErrIrregularHistory to the habit it was found in.
type IrregularHistoryError struct {
	Habit string
}

func (e *IrregularHistoryError) Error() string {
	return fmt.Sprintf("irregular dates in history of %q, try resetting the history", e.Habit)
}

func (e *IrregularHistoryError) Unwrap() error {
	return ErrIrregularHistory
}

func (h *Habit) wrap(err error) error {
	if errors.Is(err, ErrIrregularHistory) {
		return &IrregularHistoryError{Habit: h.Name}
	}
	return err
}
