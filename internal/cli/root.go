// Package cli is the habits command line: one cobra command per tracker
// operation plus an interactive shell that runs the same commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"habit-tracker/internal/config"
	"habit-tracker/internal/habit"
	"habit-tracker/internal/logger"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/service"
)

// app holds what every command needs. It is opened once, before the first
// command runs, and shared by all commands of a shell session.
type app struct {
	configPath string
	dbPath     string
	clock      func() time.Time

	cfg      config.Config
	log      *zap.Logger
	closeLog func()
	db       *gorm.DB
	habits   *service.HabitService
}

func (a *app) open(ctx context.Context) error {
	if a.habits != nil {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if a.dbPath != "" {
		cfg.DatabaseURL = a.dbPath
	}
	a.cfg = cfg

	log, closeLog, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.log, a.closeLog = log, closeLog

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	a.db = db

	habits := service.NewHabitService(repository.NewHabitRepository(db, log), log, cfg.Seed())
	if a.clock != nil {
		habits.SetClock(a.clock)
	}
	if err := habits.Load(ctx); err != nil {
		return fmt.Errorf("load habits: %w", err)
	}
	a.habits = habits
	return nil
}

func (a *app) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
		a.db = nil
	}
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
	a.habits = nil
}

func (a *app) now() time.Time {
	return a.habits.Now()
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "habits",
		Short: "Track daily, weekly, monthly and yearly habits",
		Long: `habits keeps a local record of recurring habits, lets you check them off
for the current period and shows streak and break analytics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHabits(cmd.OutOrStdout(), a)
		},
	}

	if a.habits == nil {
		root.PersistentFlags().StringVar(&a.configPath, "config", a.configPath, "path to the YAML config file (default habits.yaml)")
		root.PersistentFlags().StringVar(&a.dbPath, "db", a.dbPath, "path to the SQLite database")
	}

	root.AddCommand(
		newListCommand(a),
		newAddCommand(a),
		newCheckCommand(a),
		newUncheckCommand(a),
		newShowCommand(a),
		newAnalyticsCommand(a),
		newRenameCommand(a),
		newDescribeCommand(a),
		newPeriodicityCommand(a),
		newResetCommand(a),
		newDeleteCommand(a),
		newHistoryCommand(a),
		newShellCommand(a),
		newBotCommand(a),
	)
	return root
}

// Execute runs the command line with os.Args.
func Execute(ctx context.Context) error {
	a := &app{}
	defer a.close()

	err := newRootCommand(a).ExecuteContext(ctx)
	if err != nil {
		a.logFailure(err)
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
	}
	return err
}

func (a *app) logFailure(err error) {
	if a.log == nil {
		return
	}
	var irr *habit.IrregularHistoryError
	if errors.As(err, &irr) {
		a.log.Warn("Irregular history", zap.String("name", irr.Habit))
		return
	}
	a.log.Error("Command failed", zap.Error(err))
}

// describe turns an error into the message shown to the user.
func describe(err error) string {
	var irr *habit.IrregularHistoryError
	if errors.As(err, &irr) {
		return fmt.Sprintf("history of %s is inconsistent, consider resetting it (habits reset %q)", irr.Habit, irr.Habit)
	}
	return err.Error()
}
