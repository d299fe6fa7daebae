package service

import "habit-tracker/internal/habit"

type sample struct {
	name, description string
	periodicity       habit.Periodicity
	created           string
	history           string
}

var samples = []sample{
	{
		"Drink 8 glasses of water", "Stay hydrated, and be more healthy", habit.Daily, "2024-05-13",
		"2024-05-13,2024-05-14,2024-05-15,2024-05-18,2024-05-19,2024-05-20,2024-05-22," +
			"2024-05-23,2024-05-24,2024-05-26,2024-05-27,2024-05-29,2024-05-30,2024-05-31," +
			"2024-06-01,2024-06-02,2024-06-03,2024-06-04,2024-06-05,2024-06-06,2024-06-08," +
			"2024-06-09,2024-06-12",
	},
	{
		"Meditate for 5 minutes", "Let's keep our mind free and focused", habit.Daily, "2024-05-01",
		"2024-05-13,2024-05-14,2024-05-15,2024-05-18,2024-05-20,2024-05-21,2024-05-22," +
			"2024-05-23,2024-05-26,2024-05-27,2024-05-28,2024-05-29,2024-05-30,2024-05-31," +
			"2024-06-01,2024-06-02,2024-06-03,2024-06-04,2024-06-05,2024-06-06,2024-06-07," +
			"2024-06-08,2024-06-10,2024-06-13",
	},
	{
		"Take a short walk", "This might help us improve our mood", habit.Daily, "2024-05-14",
		"2024-05-14,2024-05-15,2024-05-16,2024-05-17,2024-05-19,2024-05-20,2024-05-21," +
			"2024-05-22,2024-05-23,2024-05-24,2024-05-26,2024-05-27,2024-05-29,2024-05-30," +
			"2024-05-31,2024-06-01,2024-06-03,2024-06-04,2024-06-05,2024-06-08,2024-06-09," +
			"2024-06-11,2024-06-12,2024-06-13",
	},
	{
		"Plan my weekly goals", "Time to focus on the work more!", habit.Weekly, "2024-03-20",
		"2024-03-20,2024-03-27,2024-04-03,2024-04-17,2024-04-24,2024-05-01,2024-05-08," +
			"2024-05-15,2024-05-22,2024-05-29,2024-06-05",
	},
	{
		"Try a new recipe", "Try to cook it too", habit.Weekly, "2024-03-13",
		"2024-03-13,2024-03-20,2024-03-27,2024-04-10,2024-04-17,2024-05-08,2024-05-15," +
			"2024-05-29,2024-06-05",
	},
	{
		"Read a full book", "Time to work on that reading goal", habit.Monthly, "2024-01-01",
		"2024-01-13,2024-02-13,2024-04-13,2024-05-13",
	},
	{
		"Review monthly bills", "Better budgeting helps", habit.Monthly, "2024-01-01",
		"2024-02-13,2024-03-13,2024-04-13,2024-06-13",
	},
	{
		"Plan and take a vacation", "Relax and come back to work with more energy", habit.Yearly, "2020-01-01",
		"2020-06-09,2021-06-09,2022-06-09,2023-06-09,2024-06-09",
	},
}

// SampleHabits returns the habits an empty store is seeded with.
func SampleHabits() []*habit.Habit {
	out := make([]*habit.Habit, 0, len(samples))
	for _, s := range samples {
		created, _ := habit.ParseDate(s.created)
		h := habit.New(s.name, s.description, s.periodicity, created)
		if err := h.SetHistory(s.history); err != nil {
			panic(err)
		}
		out = append(out, h)
	}
	return out
}
