package service

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"habit-tracker/internal/habit"
)

// ReminderService builds the daily check-in message sent by the bot.
type ReminderService struct {
	habits *HabitService
	logger *zap.Logger
}

func NewReminderService(habits *HabitService, logger *zap.Logger) *ReminderService {
	return &ReminderService{habits: habits, logger: logger}
}

// DailySummary lists the habits still open for the current period and the
// ones already done. A habit with an irregular history is flagged instead
// of failing the whole message.
func (s *ReminderService) DailySummary(now time.Time) string {
	var open, done, broken []string

	for _, h := range s.habits.Habits() {
		current, _, err := h.Streak(now)
		if err != nil {
			var irr *habit.IrregularHistoryError
			if errors.As(err, &irr) {
				s.logger.Warn("Irregular history in summary", zap.String("name", h.Name))
				broken = append(broken, h.Name)
				continue
			}
			s.logger.Error("Failed to compute streak", zap.String("name", h.Name), zap.Error(err))
			continue
		}
		line := formatSummaryLine(h, current)
		if h.IsCheckedOff(now) {
			done = append(done, line)
		} else {
			open = append(open, line)
		}
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Habit check-in</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))

	builder.WriteString("⏳ <b>Still open</b>\n")
	if len(open) == 0 {
		builder.WriteString("— everything is checked off\n")
	} else {
		for _, line := range open {
			builder.WriteString(line)
		}
	}

	builder.WriteString("\n✅ <b>Done</b>\n")
	if len(done) == 0 {
		builder.WriteString("— nothing yet\n")
	} else {
		for _, line := range done {
			builder.WriteString(line)
		}
	}

	if len(broken) > 0 {
		builder.WriteString("\n⚠️ <b>Inconsistent history</b>\n")
		for _, name := range broken {
			builder.WriteString(fmt.Sprintf("• %s: consider resetting it\n", html.EscapeString(name)))
		}
	}

	return strings.TrimSpace(builder.String())
}

func formatSummaryLine(h *habit.Habit, current int) string {
	line := fmt.Sprintf("• %s <i>(%s)</i>", html.EscapeString(strings.TrimSpace(h.Name)), h.Periodicity)
	if current > 0 {
		line += fmt.Sprintf(" · 🔥 %d", current)
	}
	return line + "\n"
}
