package domain

import (
	"fmt"
	"sort"
	"time"
)

// weekSpan is the length of an ISO week.
const weekSpan = 7 * 24 * time.Hour

// WeeklyAggregate holds the change totals of all pull requests merged within one ISO week.
type WeeklyAggregate struct {
	WeekStart         time.Time
	WeekEnd           time.Time
	Additions         int
	Deletions         int
	TotalChanges      int
	NetChange         int
	PRCount           int
	AveragePRSize     float64
	ChangedFilesTotal int
}

// WeekStartOf returns Monday 00:00:00.000 UTC of the ISO week containing t.
func WeekStartOf(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday -> 7
	}
	daysToSubtract := weekday - int(time.Monday)
	return time.Date(t.Year(), t.Month(), t.Day()-daysToSubtract, 0, 0, 0, 0, time.UTC)
}

// WeekEndOf returns Sunday 23:59:59.999 of the week starting at weekStart.
func WeekEndOf(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, 7).Add(-time.Millisecond)
}

// NewWeeklyAggregate sums the records merged within the week starting at weekStart.
// It panics if weekStart is not a Monday; callers must pass a value returned by WeekStartOf.
func NewWeeklyAggregate(records []ChangeRecord, weekStart time.Time) WeeklyAggregate {
	if weekStart.Weekday() != time.Monday {
		panic(fmt.Sprintf("domain: week start %s is a %s, not a Monday", weekStart.Format(time.RFC3339), weekStart.Weekday()))
	}

	// Bounds are compared against the next Monday so sub-millisecond timestamps on Sunday
	// night still land in their own week.
	next := weekStart.AddDate(0, 0, 7)
	agg := WeeklyAggregate{
		WeekStart: weekStart,
		WeekEnd:   WeekEndOf(weekStart),
	}
	for _, r := range records {
		if r.MergedAt.Before(weekStart) || !r.MergedAt.Before(next) {
			continue
		}
		agg.Additions += r.Additions
		agg.Deletions += r.Deletions
		agg.ChangedFilesTotal += r.ChangedFiles
		agg.PRCount++
	}
	agg.TotalChanges = agg.Additions + agg.Deletions
	agg.NetChange = agg.Additions - agg.Deletions
	if agg.PRCount > 0 {
		agg.AveragePRSize = float64(agg.TotalChanges) / float64(agg.PRCount)
	}
	return agg
}

// BuildWeeklySeries groups records by ISO week and returns one aggregate per week that
// contains at least one record, in ascending order. Empty weeks are not synthesized.
func BuildWeeklySeries(records []ChangeRecord) []WeeklyAggregate {
	byWeek := make(map[time.Time][]ChangeRecord)
	for _, r := range records {
		ws := WeekStartOf(r.MergedAt)
		byWeek[ws] = append(byWeek[ws], r)
	}

	weeks := make([]time.Time, 0, len(byWeek))
	for ws := range byWeek {
		weeks = append(weeks, ws)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	series := make([]WeeklyAggregate, 0, len(weeks))
	for _, ws := range weeks {
		series = append(series, NewWeeklyAggregate(byWeek[ws], ws))
	}
	return series
}

// TotalChangesSeries extracts the weekly totals of a series, preserving order.
func TotalChangesSeries(series []WeeklyAggregate) []float64 {
	values := make([]float64, len(series))
	for i, w := range series {
		values[i] = float64(w.TotalChanges)
	}
	return values
}

// DeploymentWeek is the number of deployments in one ISO week.
type DeploymentWeek struct {
	WeekStart time.Time
	WeekEnd   time.Time
	Count     int
}

// BuildDeploymentSeries counts deployments per ISO week. Weeks between the first and last
// deployment that saw no deployment are included with a zero count, so the index of an
// element is its distance in weeks from the first one.
func BuildDeploymentSeries(records []DeploymentRecord) []DeploymentWeek {
	if len(records) == 0 {
		return []DeploymentWeek{}
	}

	counts := make(map[time.Time]int)
	first, last := WeekStartOf(records[0].Timestamp), WeekStartOf(records[0].Timestamp)
	for _, r := range records {
		ws := WeekStartOf(r.Timestamp)
		counts[ws]++
		if ws.Before(first) {
			first = ws
		}
		if ws.After(last) {
			last = ws
		}
	}

	series := make([]DeploymentWeek, 0, int(last.Sub(first)/weekSpan)+1)
	for ws := first; !ws.After(last); ws = ws.AddDate(0, 0, 7) {
		series = append(series, DeploymentWeek{
			WeekStart: ws,
			WeekEnd:   WeekEndOf(ws),
			Count:     counts[ws],
		})
	}
	return series
}

// DeploymentCounts extracts the weekly counts of a deployment series.
func DeploymentCounts(series []DeploymentWeek) []float64 {
	values := make([]float64, len(series))
	for i, w := range series {
		values[i] = float64(w.Count)
	}
	return values
}
