package domain

import (
	"time"

	"github.com/montanaflynn/stats"
)

// DefaultOutlierThreshold is the number of standard deviations above the mean a week
// must exceed to be flagged.
const DefaultOutlierThreshold = 2.0

// MinOutlierWeeks is the smallest series outlier detection runs on.
const MinOutlierWeeks = 4

// OutlierWeek is a week whose total changes are anomalously high.
type OutlierWeek struct {
	WeekStart    time.Time
	TotalChanges int
	PRCount      int
	ZScore       float64
	MeanValue    float64
	StdDeviation float64
}

// DetectOutliers flags weeks whose total changes strictly exceed mean + threshold*stddev,
// using the population standard deviation. It returns an empty slice for series shorter
// than MinOutlierWeeks or with zero variance. Output follows input order.
func DetectOutliers(series []WeeklyAggregate, threshold float64) []OutlierWeek {
	outliers := []OutlierWeek{}
	if len(series) < MinOutlierWeeks {
		return outliers
	}

	values := TotalChangesSeries(series)
	mean, err := stats.Mean(values)
	if err != nil {
		return outliers
	}
	stdDev, err := stats.StandardDeviationPopulation(values)
	if err != nil || stdDev == 0 {
		return outliers
	}

	limit := mean + threshold*stdDev
	for i, w := range series {
		if values[i] <= limit {
			continue
		}
		outliers = append(outliers, OutlierWeek{
			WeekStart:    w.WeekStart,
			TotalChanges: w.TotalChanges,
			PRCount:      w.PRCount,
			ZScore:       (values[i] - mean) / stdDev,
			MeanValue:    mean,
			StdDeviation: stdDev,
		})
	}
	return outliers
}
