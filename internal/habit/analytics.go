package habit

import "time"

// Streak returns the current and the longest run of consecutive periods
// with a check-off. The current streak is 0 once more than one full period
// has passed since the last entry.
func Streak(history []time.Time, p Periodicity, now time.Time) (current, longest int, err error) {
	if len(history) == 0 {
		return 0, 0, nil
	}

	current, longest = 1, 1
	for i := 1; i < len(history); i++ {
		switch d := p.Distance(history[i], history[i-1]); {
		case d < 0:
			return 0, 0, ErrIrregularHistory
		case d == 1:
			current++
			longest = max(current, longest)
		case d > 1:
			current = 1
		}
	}

	switch gap := p.Distance(now, history[len(history)-1]); {
	case gap < 0:
		return 0, 0, ErrIrregularHistory
	case gap > 1:
		current = 0
	}
	return current, longest, nil
}

// Breaks returns the longest break and the number of breaks, a break being
// a run of periods without check-off. A trailing run up to now counts once
// more than one full period has passed.
func Breaks(history []time.Time, p Periodicity, now time.Time) (longest, total int, err error) {
	if len(history) == 0 {
		return 0, 0, nil
	}

	longest = 1
	for i := 1; i < len(history); i++ {
		d := p.Distance(history[i], history[i-1])
		if d < 0 {
			return 0, 0, ErrIrregularHistory
		}
		if d > 1 {
			total++
			longest = max(longest, d-1)
		}
	}

	gap := p.Distance(now, history[len(history)-1])
	if gap < 0 {
		return 0, 0, ErrIrregularHistory
	}
	if gap > 1 {
		total++
		longest = max(longest, gap-1)
	}

	if total == 0 {
		longest = 0
	}
	return longest, total, nil
}
