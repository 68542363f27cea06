package usecase

import (
	"github.com/naka-gawa/repo-insights/internal/domain"
)

// DeploymentWeekDTO is the serialized form of a domain.DeploymentWeek.
type DeploymentWeekDTO struct {
	WeekStart string `json:"weekStart"`
	WeekEnd   string `json:"weekEnd"`
	Count     int    `json:"count"`
}

// DeploymentTrendDTO is the serialized form of a domain.DeploymentTrendAnalysis.
type DeploymentTrendDTO struct {
	Direction     domain.TrendDirection `json:"direction"`
	Slope         float64               `json:"slope"`
	Confidence    float64               `json:"confidence"`
	MovingAverage []float64             `json:"movingAverage"`
}

// DeploymentSummary holds totals over the analyzed period.
type DeploymentSummary struct {
	TotalDeployments int                             `json:"totalDeployments"`
	AveragePerWeek   float64                         `json:"averagePerWeek"`
	WeeksAnalyzed    int                             `json:"weeksAnalyzed"`
	PerformanceLevel domain.DeploymentFrequencyLevel `json:"performanceLevel"`
}

// DeploymentFrequencyResult is the output of the deployment frequency analysis.
type DeploymentFrequencyResult struct {
	Source     domain.DeploymentSource `json:"source"`
	WeeklyData []DeploymentWeekDTO     `json:"weeklyData"`
	Trend      DeploymentTrendDTO      `json:"trend"`
	Summary    DeploymentSummary       `json:"summary"`
}

// AnalyzeDeploymentFrequency counts deployments per week and classifies the trend of the
// smoothed weekly counts with a least-squares fit.
func AnalyzeDeploymentFrequency(records []domain.DeploymentRecord, source domain.DeploymentSource, window int) DeploymentFrequencyResult {
	series := domain.BuildDeploymentSeries(records)
	analysis := domain.AnalyzeDeploymentTrend(domain.DeploymentCounts(series), window)

	result := DeploymentFrequencyResult{
		Source:     source,
		WeeklyData: make([]DeploymentWeekDTO, 0, len(series)),
		Trend: DeploymentTrendDTO{
			Direction:     analysis.Direction,
			Slope:         analysis.Slope,
			Confidence:    analysis.Confidence,
			MovingAverage: analysis.MovingAverage,
		},
	}
	for _, w := range series {
		result.WeeklyData = append(result.WeeklyData, DeploymentWeekDTO{
			WeekStart: formatTimestamp(w.WeekStart),
			WeekEnd:   formatTimestamp(w.WeekEnd),
			Count:     w.Count,
		})
		result.Summary.TotalDeployments += w.Count
	}

	result.Summary.WeeksAnalyzed = len(series)
	if len(series) > 0 {
		result.Summary.AveragePerWeek = float64(result.Summary.TotalDeployments) / float64(len(series))
	}
	result.Summary.PerformanceLevel = domain.ClassifyDeploymentFrequency(result.Summary.AveragePerWeek)
	return result
}
