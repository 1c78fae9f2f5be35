package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time {
	return &t
}

func TestTruncateToDay(t *testing.T) {
	in := time.Date(2025, time.March, 14, 23, 59, 59, 999, time.FixedZone("CET", 3600))
	got := TruncateToDay(in)
	require.Equal(t, date(2025, time.March, 14), got)

	// Already-midnight values pass through unchanged.
	require.Equal(t, date(2025, time.March, 14), TruncateToDay(date(2025, time.March, 14)))
}

func TestComputeStreak(t *testing.T) {
	today := time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		count      int
		lastLogin  *time.Time
		loginDates []string
		wantCount  int
		wantDates  []string
	}{
		{
			name:      "first ever login",
			count:     0,
			lastLogin: nil,
			wantCount: 1,
			wantDates: []string{"2025-03-14"},
		},
		{
			name:       "same day leaves count unchanged",
			count:      3,
			lastLogin:  datePtr(date(2025, time.March, 14)),
			loginDates: []string{"2025-03-12", "2025-03-13", "2025-03-14"},
			wantCount:  3,
			wantDates:  []string{"2025-03-12", "2025-03-13", "2025-03-14"},
		},
		{
			name:       "next day increments",
			count:      3,
			lastLogin:  datePtr(date(2025, time.March, 13)),
			loginDates: []string{"2025-03-11", "2025-03-12", "2025-03-13"},
			wantCount:  4,
			wantDates:  []string{"2025-03-11", "2025-03-12", "2025-03-13", "2025-03-14"},
		},
		{
			name:       "two day gap resets",
			count:      7,
			lastLogin:  datePtr(date(2025, time.March, 12)),
			loginDates: []string{"2025-03-12"},
			wantCount:  1,
			wantDates:  []string{"2025-03-12", "2025-03-14"},
		},
		{
			name:       "long gap resets",
			count:      30,
			lastLogin:  datePtr(date(2024, time.December, 1)),
			loginDates: []string{"2024-12-01"},
			wantCount:  1,
			wantDates:  []string{"2024-12-01", "2025-03-14"},
		},
		{
			name:       "last login carries a time component",
			count:      2,
			lastLogin:  datePtr(time.Date(2025, time.March, 13, 22, 15, 0, 0, time.UTC)),
			loginDates: []string{"2025-03-13"},
			wantCount:  3,
			wantDates:  []string{"2025-03-13", "2025-03-14"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStreak(today, tt.count, tt.lastLogin, tt.loginDates)

			require.Equal(t, tt.wantCount, got.Count)
			require.Equal(t, date(2025, time.March, 14), got.LastLogin)
			require.Equal(t, tt.wantDates, got.LoginDates)
		})
	}
}

func TestComputeStreak_DoesNotMutateInput(t *testing.T) {
	dates := []string{"2025-03-13"}
	last := date(2025, time.March, 13)

	got := ComputeStreak(date(2025, time.March, 14), 1, &last, dates)

	require.Equal(t, []string{"2025-03-13"}, dates)
	require.Equal(t, []string{"2025-03-13", "2025-03-14"}, got.LoginDates)
}

func TestComputeStreak_Scenario(t *testing.T) {
	// A user logging in over several days: twice on day one, once the
	// next day, then again after skipping two days.
	day1 := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)

	st := ComputeStreak(day1, 0, nil, nil)
	require.Equal(t, 1, st.Count)

	st2 := ComputeStreak(day1.Add(6*time.Hour), st.Count, &st.LastLogin, st.LoginDates)
	require.Equal(t, 1, st2.Count)
	require.Len(t, st2.LoginDates, 1)

	st3 := ComputeStreak(day1.AddDate(0, 0, 1), st2.Count, &st2.LastLogin, st2.LoginDates)
	require.Equal(t, 2, st3.Count)

	st4 := ComputeStreak(day1.AddDate(0, 0, 4), st3.Count, &st3.LastLogin, st3.LoginDates)
	require.Equal(t, 1, st4.Count)
	require.Equal(t, []string{"2025-06-01", "2025-06-02", "2025-06-05"}, st4.LoginDates)
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "jane@x.com", NormalizeEmail("  JANE@X.COM "))
	require.Equal(t, "jane@x.com", NormalizeEmail("jane@x.com"))
	require.Equal(t, "", NormalizeEmail("   "))
}
