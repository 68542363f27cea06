package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, h, minute int) time.Time {
	return time.Date(y, m, d, h, minute, 0, 0, time.UTC)
}

func TestWeekStartOf(t *testing.T) {
	testCases := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "midweek maps to preceding Monday",
			input:    date(2024, time.January, 3, 15, 30),
			expected: date(2024, time.January, 1, 0, 0),
		},
		{
			name:     "Sunday maps six days back",
			input:    time.Date(2024, time.January, 7, 23, 59, 59, 999000000, time.UTC),
			expected: date(2024, time.January, 1, 0, 0),
		},
		{
			name:     "Monday midnight is its own week start",
			input:    date(2024, time.January, 8, 0, 0),
			expected: date(2024, time.January, 8, 0, 0),
		},
		{
			name:     "crosses a month boundary",
			input:    date(2024, time.March, 2, 12, 0),
			expected: date(2024, time.February, 26, 0, 0),
		},
		{
			name:     "non UTC input is evaluated in UTC",
			input:    time.Date(2024, time.January, 8, 5, 0, 0, 0, time.FixedZone("JST", 9*60*60)),
			expected: date(2024, time.January, 1, 0, 0),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := WeekStartOf(tc.input)
			assert.True(t, tc.expected.Equal(got), "expected %s, got %s", tc.expected, got)
			assert.Equal(t, time.Monday, got.Weekday())
		})
	}
}

func TestWeekStartOf_IdempotentAcrossWeek(t *testing.T) {
	monday := date(2024, time.May, 13, 0, 0)
	for day := 0; day < 7; day++ {
		for _, hour := range []int{0, 11, 23} {
			ts := monday.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
			ws := WeekStartOf(ts)
			assert.Equal(t, monday, ws, "day %d hour %d", day, hour)
			assert.Equal(t, ws, WeekStartOf(ws))
		}
	}
}

func TestNewWeeklyAggregate(t *testing.T) {
	weekStart := date(2024, time.January, 1, 0, 0)
	records := []ChangeRecord{
		{Number: 1, MergedAt: date(2024, time.January, 1, 0, 0), Additions: 100, Deletions: 20, ChangedFiles: 3},
		{Number: 2, MergedAt: time.Date(2024, time.January, 7, 23, 59, 59, 999000000, time.UTC), Additions: 10, Deletions: 40, ChangedFiles: 2},
		{Number: 3, MergedAt: date(2024, time.January, 8, 0, 0), Additions: 999, Deletions: 999, ChangedFiles: 9},
		{Number: 4, MergedAt: date(2023, time.December, 31, 23, 0), Additions: 999, Deletions: 999, ChangedFiles: 9},
	}

	agg := NewWeeklyAggregate(records, weekStart)

	assert.Equal(t, WeeklyAggregate{
		WeekStart:         weekStart,
		WeekEnd:           time.Date(2024, time.January, 7, 23, 59, 59, 999000000, time.UTC),
		Additions:         110,
		Deletions:         60,
		TotalChanges:      170,
		NetChange:         50,
		PRCount:           2,
		AveragePRSize:     85,
		ChangedFilesTotal: 5,
	}, agg)
}

func TestNewWeeklyAggregate_EmptyWeek(t *testing.T) {
	weekStart := date(2024, time.January, 1, 0, 0)
	agg := NewWeeklyAggregate(nil, weekStart)
	assert.Equal(t, 0, agg.PRCount)
	assert.Equal(t, 0.0, agg.AveragePRSize)
	assert.Equal(t, 0, agg.TotalChanges)
}

func TestNewWeeklyAggregate_PanicsOnNonMonday(t *testing.T) {
	assert.Panics(t, func() {
		NewWeeklyAggregate(nil, date(2024, time.January, 2, 0, 0))
	})
}

func TestBuildWeeklySeries(t *testing.T) {
	t.Run("should correctly split PRs across week boundary", func(t *testing.T) {
		records := []ChangeRecord{
			{Number: 1, MergedAt: date(2024, time.January, 7, 23, 0), Additions: 10, Deletions: 5, ChangedFiles: 1},
			{Number: 2, MergedAt: date(2024, time.January, 8, 1, 0), Additions: 20, Deletions: 5, ChangedFiles: 2},
		}
		series := BuildWeeklySeries(records)
		require.Len(t, series, 2)
		assert.Equal(t, date(2024, time.January, 1, 0, 0), series[0].WeekStart)
		assert.Equal(t, 15, series[0].TotalChanges)
		assert.Equal(t, date(2024, time.January, 8, 0, 0), series[1].WeekStart)
		assert.Equal(t, 25, series[1].TotalChanges)
	})

	t.Run("does not fill gaps between weeks", func(t *testing.T) {
		records := []ChangeRecord{
			{Number: 2, MergedAt: date(2024, time.January, 24, 9, 0), Additions: 1},
			{Number: 1, MergedAt: date(2024, time.January, 2, 9, 0), Additions: 1},
		}
		series := BuildWeeklySeries(records)
		require.Len(t, series, 2)
		assert.Equal(t, date(2024, time.January, 1, 0, 0), series[0].WeekStart)
		assert.Equal(t, date(2024, time.January, 22, 0, 0), series[1].WeekStart)
	})

	t.Run("empty input yields empty series", func(t *testing.T) {
		series := BuildWeeklySeries(nil)
		assert.NotNil(t, series)
		assert.Empty(t, series)
	})

	t.Run("is deterministic", func(t *testing.T) {
		records := []ChangeRecord{
			{Number: 1, MergedAt: date(2024, time.February, 5, 9, 0), Additions: 12, Deletions: 3, ChangedFiles: 1},
			{Number: 2, MergedAt: date(2024, time.February, 6, 9, 0), Additions: 40, Deletions: 1, ChangedFiles: 4},
			{Number: 3, MergedAt: date(2024, time.February, 20, 9, 0), Additions: 7, Deletions: 70, ChangedFiles: 2},
		}
		assert.Equal(t, BuildWeeklySeries(records), BuildWeeklySeries(records))
	})
}

func TestBuildDeploymentSeries(t *testing.T) {
	records := []DeploymentRecord{
		{ID: "a", Timestamp: date(2024, time.January, 2, 10, 0)},
		{ID: "b", Timestamp: date(2024, time.January, 3, 10, 0)},
		{ID: "c", Timestamp: date(2024, time.January, 17, 10, 0)},
	}

	series := BuildDeploymentSeries(records)

	require.Len(t, series, 3)
	assert.Equal(t, []float64{2, 0, 1}, DeploymentCounts(series))
	assert.Equal(t, date(2024, time.January, 8, 0, 0), series[1].WeekStart)
	assert.Equal(t, time.Date(2024, time.January, 14, 23, 59, 59, 999000000, time.UTC), series[1].WeekEnd)

	assert.Empty(t, BuildDeploymentSeries(nil))
}
