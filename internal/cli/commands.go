package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"habit-tracker/internal/habit"
	"habit-tracker/internal/service"
)

func listHabits(w io.Writer, a *app) error {
	renderHabitList(w, a.habits.Habits(), a.now())
	return nil
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tracked habits with their current streak",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHabits(cmd.OutOrStdout(), a)
		},
	}
}

func newAddCommand(a *app) *cobra.Command {
	var (
		description string
		periodicity string
		history     string
	)
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Start tracking a new habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := habit.ParsePeriodicity(periodicity)
			if err != nil {
				return err
			}
			h, err := a.habits.Add(cmd.Context(), args[0], description, p, history)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s habit %q\n", h.Periodicity, h.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "what the habit is about")
	cmd.Flags().StringVarP(&periodicity, "periodicity", "p", string(habit.Daily), "daily, weekly, monthly or yearly")
	cmd.Flags().StringVar(&history, "history", "", "comma separated YYYY-MM-DD check-off dates")
	return cmd
}

func newCheckCommand(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "check [NAME...]",
		Short: "Check habits off for the current period",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if all {
				names = service.UncheckedNames(a.habits.Habits(), a.now())
			}
			if len(names) == 0 {
				if all {
					fmt.Fprintln(cmd.OutOrStdout(), "Everything is already checked off")
					return nil
				}
				return fmt.Errorf("name at least one habit or pass --all")
			}
			for _, name := range names {
				if _, err := a.habits.Get(name); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Skipping %s: not tracked\n", name)
				}
			}
			if _, err := a.habits.CheckOff(cmd.Context(), names...); err != nil {
				return err
			}
			return listHabits(cmd.OutOrStdout(), a)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "check off every open habit")
	return cmd
}

func newUncheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uncheck NAME",
		Short: "Undo the check-off of the current period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := a.habits.Uncheck(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not checked off\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unchecked %s\n", args[0])
			return nil
		},
	}
}

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show every statistic of one habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.habits.Get(args[0])
			if err != nil {
				return err
			}
			r, err := service.BuildReport(h, a.now())
			if err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), r)
			return nil
		},
	}
}

func newAnalyticsCommand(a *app) *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:     "analytics",
		Aliases: []string{"stats"},
		Short:   "Compare streaks and breaks of all habits",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, irregular, err := service.PartitionReports(a.habits.Habits(), a.now())
			if err != nil {
				return err
			}
			if only != "" {
				p, err := habit.ParsePeriodicity(only)
				if err != nil {
					return err
				}
				reports = service.FilterReports(reports, p)
			}
			renderAnalytics(cmd.OutOrStdout(), reports, irregular)
			return nil
		},
	}
	cmd.Flags().StringVarP(&only, "periodicity", "p", "", "only show habits with this periodicity")
	return cmd
}

func newRenameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename OLD NEW",
		Short: "Rename a habit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.habits.Rename(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

func newDescribeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe NAME DESCRIPTION...",
		Short: "Replace the description of a habit",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc := strings.Join(args[1:], " ")
			if err := a.habits.EditDescription(cmd.Context(), args[0], desc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated the description of %s\n", args[0])
			return nil
		},
	}
}

func newPeriodicityCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "periodicity NAME PERIODICITY",
		Short: "Change how often a habit is due (clears its history)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := habit.ParsePeriodicity(args[1])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("changing the periodicity deletes the history of %s, rerun with --yes", args[0])
			}
			if err := a.habits.EditPeriodicity(cmd.Context(), args[0], p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], p)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm that the history may be deleted")
	return cmd
}

func newResetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset NAME",
		Short: "Delete the check-off history of a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.habits.Reset(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset the history of %s\n", args[0])
			return nil
		},
	}
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"rm"},
		Short:   "Stop tracking a habit",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.habits.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newHistoryCommand(a *app) *cobra.Command {
	var set string
	cmd := &cobra.Command{
		Use:   "history NAME",
		Short: "Print or replace the check-off history of a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("set") {
				if err := a.habits.SetHistory(cmd.Context(), args[0], set); err != nil {
					return err
				}
			}
			h, err := a.habits.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h.HistoryString())
			return nil
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "replace the history with comma separated YYYY-MM-DD dates")
	return cmd
}
