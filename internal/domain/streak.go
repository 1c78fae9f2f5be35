package domain

import "time"

// dateLayout is the calendar-day format used for login bookkeeping.
const dateLayout = "2006-01-02"

// StreakState is the result of applying a login to a user's streak.
type StreakState struct {
	// Count is the updated consecutive-day count.
	Count int

	// LastLogin is the midnight-truncated date of this login.
	LastLogin time.Time

	// LoginDates is the updated set of distinct login days, oldest first.
	LoginDates []string
}

// TruncateToDay strips the time-of-day component in UTC, leaving midnight
// of the same calendar day. All streak arithmetic operates on day boundaries
// so that two logins within the same day count once.
func TruncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ComputeStreak applies a login at time now to the user's previous streak
// state and returns the new state.
//
// The rules, on midnight-truncated dates:
//   - first ever login: count becomes 1
//   - same calendar day as the last login: count unchanged
//   - exactly one day after the last login: count increments
//   - any larger gap: count resets to 1
//
// The login day is appended to loginDates unless already present, so the
// slice stays deduplicated by calendar day.
func ComputeStreak(now time.Time, count int, lastLogin *time.Time, loginDates []string) StreakState {
	today := TruncateToDay(now)

	switch {
	case lastLogin == nil:
		count = 1
	default:
		last := TruncateToDay(*lastLogin)
		days := int(today.Sub(last).Hours() / 24)
		switch {
		case days == 0:
			// already counted today
		case days == 1:
			count++
		default:
			count = 1
		}
	}

	day := today.Format(dateLayout)
	updated := loginDates
	if !containsDay(loginDates, day) {
		updated = append(append([]string(nil), loginDates...), day)
	}

	return StreakState{
		Count:      count,
		LastLogin:  today,
		LoginDates: updated,
	}
}

func containsDay(dates []string, day string) bool {
	for _, d := range dates {
		if d == day {
			return true
		}
	}
	return false
}
