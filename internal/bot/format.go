package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"habit-tracker/internal/habit"
	"habit-tracker/internal/service"
)

const (
	btnSkip           = "⏭️ Skip"
	btnConfirm        = "✅ Confirm"
	btnCancel         = "↩️ Cancel"
	btnCancelDialog   = "⏪ Cancel input"
	iconOpen          = "⏳"
	iconDone          = "✅"
	iconIrregular     = "⚠️"
	menuLabelNewHabit = "➕ New habit"
	menuLabelHabits   = "📋 Habits"
	menuLabelStats    = "📊 Analytics"
	menuLabelHelp     = "ℹ️ Help"
)

// Telegram rejects callback data longer than this many bytes.
const maxCallbackData = 64

func callbackData(prefix, name string) (string, bool) {
	data := prefix + name
	return data, len(data) <= maxCallbackData
}

func parseCallback(data string) (prefix, name string, ok bool) {
	for _, p := range []string{cbCheckPrefix, cbUncheckPrefix, cbStatsPrefix} {
		if strings.HasPrefix(data, p) {
			name = strings.TrimPrefix(data, p)
			return p, name, name != ""
		}
	}
	return "", "", false
}

// habitListView renders the habits of the current period with one button
// per habit: check off the open ones, undo the done ones. markup is nil when
// there is nothing to press.
func habitListView(habits []*habit.Habit, now time.Time) (string, *tgbotapi.InlineKeyboardMarkup) {
	if len(habits) == 0 {
		return "You are not tracking any habit yet. Start one with /newhabit.", nil
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Your habits</b>\n")
	builder.WriteString("Tap a button to check a habit off or undo it.\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, h := range habits {
		builder.WriteString(formatHabitLine(h, now))

		done := h.IsCheckedOff(now)
		prefix, label := cbCheckPrefix, iconDone+" "+shortTitle(h.Name, 24)
		if done {
			prefix, label = cbUncheckPrefix, "↩️ "+shortTitle(h.Name, 24)
		}
		data, ok := callbackData(prefix, h.Name)
		if !ok {
			continue
		}
		row := []tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardButtonData(label, data)}
		if stats, ok := callbackData(cbStatsPrefix, h.Name); ok {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("📊", stats))
		}
		rows = append(rows, row)
	}

	text := strings.TrimSpace(builder.String())
	if len(rows) == 0 {
		return text, nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return text, &markup
}

func formatHabitLine(h *habit.Habit, now time.Time) string {
	current, _, err := h.Streak(now)
	if err != nil {
		return fmt.Sprintf("%s <b>%s</b> <i>(%s)</i> · history inconsistent\n", iconIrregular, escape(h.Name), h.Periodicity)
	}
	icon := iconOpen
	if h.IsCheckedOff(now) {
		icon = iconDone
	}
	return fmt.Sprintf("%s <b>%s</b> <i>(%s)</i> · 🔥 %d\n", icon, escape(h.Name), h.Periodicity, current)
}

func formatReport(r service.HabitReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b>\n", escape(r.Name)))
	if r.Description != "" {
		b.WriteString(fmt.Sprintf("📝 %s\n", escape(r.Description)))
	}
	b.WriteString(fmt.Sprintf("🔁 %s since %s\n", r.Periodicity, r.CreationDate))
	if r.CheckedOff {
		b.WriteString("✅ Checked off for this period\n")
	} else {
		b.WriteString("⏳ Still open for this period\n")
	}
	b.WriteString(fmt.Sprintf("\n🔥 Current streak: %d\n", r.CurrentStreak))
	b.WriteString(fmt.Sprintf("🌻 Longest streak: %d\n", r.LongestStreak))
	b.WriteString(fmt.Sprintf("❄️ Longest break: %d\n", r.LongestBreak))
	b.WriteString(fmt.Sprintf("❄️❄️❄️ Total breaks: %d\n", r.TotalBreaks))
	b.WriteString(fmt.Sprintf("✨ Check-offs: %d of %d", r.CheckOffs, r.Duration))
	return b.String()
}

// formatAnalytics groups the reports by periodicity, in report order.
func formatAnalytics(reports []service.HabitReport, irregular []string) string {
	if len(reports) == 0 && len(irregular) == 0 {
		return "You are not tracking any habit yet. Start one with /newhabit."
	}

	var b strings.Builder
	b.WriteString("📊 <b>Analytics</b>\n")
	for _, p := range habit.Periodicities {
		group := service.FilterReports(reports, p)
		if len(group) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", p))
		for _, r := range group {
			b.WriteString(fmt.Sprintf("• %s · 🔥 %d · 🌻 %d · ❄️ %d · ✨ %d/%d\n",
				escape(shortTitle(r.Name, 30)), r.CurrentStreak, r.LongestStreak, r.LongestBreak, r.CheckOffs, r.Duration))
		}
	}
	if len(irregular) > 0 {
		b.WriteString(fmt.Sprintf("\n%s <b>Inconsistent history</b>\n", iconIrregular))
		for _, name := range irregular {
			b.WriteString(fmt.Sprintf("• %s: consider /reset %s\n", escape(name), escape(name)))
		}
	}
	return strings.TrimSpace(b.String())
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func isSkipInput(text string) bool {
	t := strings.TrimSpace(strings.ToLower(text))
	return t == strings.ToLower(btnSkip) || t == "skip" || t == "-"
}

func isConfirmInput(text string) bool {
	t := strings.TrimSpace(strings.ToLower(text))
	return t == strings.ToLower(btnConfirm) || t == "yes" || t == "y"
}

func isCancelInput(text string) bool {
	t := strings.TrimSpace(strings.ToLower(text))
	return t == strings.ToLower(btnCancel) || t == "no" || t == "n"
}

func isCancelDialogInput(text string) bool {
	return strings.TrimSpace(strings.ToLower(text)) == strings.ToLower(btnCancelDialog)
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelHabits),
			tgbotapi.NewKeyboardButton(menuLabelNewHabit),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelStats),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// periodicityKeyboard offers the periodicities as typed by ParsePeriodicity.
func periodicityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var row []tgbotapi.KeyboardButton
	for _, p := range habit.Periodicities {
		row = append(row, tgbotapi.NewKeyboardButton(p.String()))
	}
	kb := tgbotapi.NewReplyKeyboard(
		row,
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
