package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"habit-tracker/internal/bot"
	"habit-tracker/internal/service"
)

func newBotCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve the habits over Telegram and send a daily reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), a)
		},
	}
}

func runBot(ctx context.Context, a *app) error {
	if err := a.cfg.ValidateTelegram(); err != nil {
		return err
	}
	tg := a.cfg.Telegram

	reminder := service.NewReminderService(a.habits, a.log)
	telegramBot, err := bot.New(tg.Token, tg.OwnerID, a.habits, reminder, a.log)
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	scheduler := service.NewSchedulerService(time.Local, a.log)
	id, err := scheduler.DailyAt(ctx, tg.ReminderTime, "daily reminder", telegramBot.SendDailyReminder)
	if err != nil {
		return fmt.Errorf("schedule reminder: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	a.log.Info("Habit bot started", zap.Int64("owner", tg.OwnerID), zap.Time("next_reminder", scheduler.Next(id)))
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", err)
	}
	a.log.Info("Habit bot stopped")
	return nil
}
