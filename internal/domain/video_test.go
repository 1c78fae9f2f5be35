package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidCategory(t *testing.T) {
	for _, c := range []string{CategoryExercise, CategoryTutorial, CategoryWorkout, CategoryOther} {
		require.True(t, ValidCategory(c), c)
	}
	require.False(t, ValidCategory("yoga"))
	require.False(t, ValidCategory(""))
	require.False(t, ValidCategory("Exercise"))
}

func TestNormalizeTags(t *testing.T) {
	require.Equal(t, []string{"cat-cow", "mobility"}, NormalizeTags([]string{" cat-cow ", "", "mobility", "  "}))
	require.Empty(t, NormalizeTags(nil))
}

func TestSplitTagsCSV(t *testing.T) {
	require.Equal(t, []string{"cat-cow", "back", "morning"}, SplitTagsCSV("cat-cow, back ,morning"))
	require.Nil(t, SplitTagsCSV("  "))
	require.Nil(t, SplitTagsCSV(""))
}

func TestMatchesRoutine(t *testing.T) {
	tests := []struct {
		name    string
		video   Video
		routine string
		want    bool
	}{
		{
			name:    "title substring",
			video:   Video{Title: "Morning Cat Cow Flow"},
			routine: "Cat Cow",
			want:    true,
		},
		{
			name:    "title substring is case insensitive",
			video:   Video{Title: "morning cat cow flow"},
			routine: "CAT COW",
			want:    true,
		},
		{
			name:    "hyphenated tag matches spaced routine",
			video:   Video{Title: "Spine Mobility", Tags: []string{"cat-cow"}},
			routine: "Cat Cow",
			want:    true,
		},
		{
			name:    "spaced tag matches hyphenated routine",
			video:   Video{Title: "Spine Mobility", Tags: []string{"cat cow"}},
			routine: "cat-cow",
			want:    true,
		},
		{
			name:    "exact tag match",
			video:   Video{Title: "Untitled", Tags: []string{"plank"}},
			routine: "plank",
			want:    true,
		},
		{
			name:    "tag substring does not match",
			video:   Video{Title: "Untitled", Tags: []string{"cat-cow-advanced"}},
			routine: "cat-cow",
			want:    false,
		},
		{
			name:    "no match",
			video:   Video{Title: "Hamstring Stretch", Tags: []string{"legs"}},
			routine: "cat cow",
			want:    false,
		},
		{
			name:    "empty routine never matches",
			video:   Video{Title: "Anything"},
			routine: "  ",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.video.MatchesRoutine(tt.routine))
		})
	}
}
