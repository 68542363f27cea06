// Package usecase contains the business logic of the application.
// The Analyze* functions compose the pure domain statistics into output DTOs;
// Aggregator wires them to a gateway.Fetcher.
package usecase

import (
	"time"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/repo-insights/internal/domain"
)

// TimestampLayout is the ISO-8601 layout used for every date in the output DTOs.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// WeeklyDataDTO is the serialized form of a domain.WeeklyAggregate.
type WeeklyDataDTO struct {
	WeekStart         string  `json:"weekStart"`
	WeekEnd           string  `json:"weekEnd"`
	Additions         int     `json:"additions"`
	Deletions         int     `json:"deletions"`
	TotalChanges      int     `json:"totalChanges"`
	NetChange         int     `json:"netChange"`
	PRCount           int     `json:"prCount"`
	AveragePRSize     float64 `json:"averagePRSize"`
	ChangedFilesTotal int     `json:"changedFilesTotal"`
}

// TrendDTO is the serialized form of a domain.ChangeTrend.
type TrendDTO struct {
	Direction     domain.TrendDirection `json:"direction"`
	PercentChange float64               `json:"percentChange"`
	AnalyzedWeeks int                   `json:"analyzedWeeks"`
	StartValue    float64               `json:"startValue"`
	EndValue      float64               `json:"endValue"`
}

// OutlierWeekDTO is the serialized form of a domain.OutlierWeek.
type OutlierWeekDTO struct {
	WeekStart    string  `json:"weekStart"`
	TotalChanges int     `json:"totalChanges"`
	PRCount      int     `json:"prCount"`
	ZScore       float64 `json:"zScore"`
	MeanValue    float64 `json:"meanValue"`
	StdDeviation float64 `json:"stdDeviation"`
}

// CodeChangesSummary holds totals over the whole analyzed period.
type CodeChangesSummary struct {
	TotalPRs             int     `json:"totalPRs"`
	TotalAdditions       int     `json:"totalAdditions"`
	TotalDeletions       int     `json:"totalDeletions"`
	AverageWeeklyChanges float64 `json:"averageWeeklyChanges"`
	AveragePRSize        float64 `json:"averagePRSize"`
	WeeksAnalyzed        int     `json:"weeksAnalyzed"`
}

// CodeChangesResult is the output of the code change analysis.
// Trend is nil when fewer than four weeks have merged pull requests.
type CodeChangesResult struct {
	WeeklyData   []WeeklyDataDTO    `json:"weeklyData"`
	Trend        *TrendDTO          `json:"trend"`
	OutlierWeeks []OutlierWeekDTO   `json:"outlierWeeks"`
	Summary      CodeChangesSummary `json:"summary"`
}

// AnalyzeCodeChanges buckets merged pull requests by ISO week, flags outlier weeks using
// the given threshold and classifies the trend of the last four weeks.
func AnalyzeCodeChanges(records []domain.ChangeRecord, outlierThreshold float64) CodeChangesResult {
	series := domain.BuildWeeklySeries(records)
	totals := domain.TotalChangesSeries(series)

	result := CodeChangesResult{
		WeeklyData:   make([]WeeklyDataDTO, 0, len(series)),
		OutlierWeeks: []OutlierWeekDTO{},
	}

	for _, w := range series {
		result.WeeklyData = append(result.WeeklyData, WeeklyDataDTO{
			WeekStart:         formatTimestamp(w.WeekStart),
			WeekEnd:           formatTimestamp(w.WeekEnd),
			Additions:         w.Additions,
			Deletions:         w.Deletions,
			TotalChanges:      w.TotalChanges,
			NetChange:         w.NetChange,
			PRCount:           w.PRCount,
			AveragePRSize:     w.AveragePRSize,
			ChangedFilesTotal: w.ChangedFilesTotal,
		})
		result.Summary.TotalPRs += w.PRCount
		result.Summary.TotalAdditions += w.Additions
		result.Summary.TotalDeletions += w.Deletions
	}

	if trend := domain.ClassifyChangeTrend(totals); trend != nil {
		result.Trend = &TrendDTO{
			Direction:     trend.Direction,
			PercentChange: trend.PercentChange,
			AnalyzedWeeks: trend.AnalyzedWeeks,
			StartValue:    trend.StartValue,
			EndValue:      trend.EndValue,
		}
	}

	for _, o := range domain.DetectOutliers(series, outlierThreshold) {
		result.OutlierWeeks = append(result.OutlierWeeks, OutlierWeekDTO{
			WeekStart:    formatTimestamp(o.WeekStart),
			TotalChanges: o.TotalChanges,
			PRCount:      o.PRCount,
			ZScore:       o.ZScore,
			MeanValue:    o.MeanValue,
			StdDeviation: o.StdDeviation,
		})
	}

	result.Summary.WeeksAnalyzed = len(series)
	if len(totals) > 0 {
		result.Summary.AverageWeeklyChanges, _ = stats.Mean(totals)
	}
	if result.Summary.TotalPRs > 0 {
		result.Summary.AveragePRSize = float64(result.Summary.TotalAdditions+result.Summary.TotalDeletions) / float64(result.Summary.TotalPRs)
	}
	return result
}
