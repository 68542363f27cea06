package usecase

import (
	"github.com/naka-gawa/repo-insights/internal/domain"
)

// SizeBucketDTO is the serialized form of a domain.SizeBucket.
type SizeBucketDTO struct {
	Bucket               domain.SizeBucketType `json:"bucket"`
	LineRange            string                `json:"lineRange"`
	AverageLeadTimeHours float64               `json:"averageLeadTimeHours"`
	PRCount              int                   `json:"prCount"`
	Percentage           float64               `json:"percentage"`
}

// InsightDTO is the serialized form of a domain.ThroughputInsight.
type InsightDTO struct {
	Type          domain.InsightType     `json:"type"`
	Message       string                 `json:"message"`
	OptimalBucket *domain.SizeBucketType `json:"optimalBucket"`
}

// ThroughputResult is the output of the PR size vs. lead time analysis.
type ThroughputResult struct {
	Buckets  []SizeBucketDTO `json:"buckets"`
	Insight  InsightDTO      `json:"insight"`
	TotalPRs int             `json:"totalPRs"`
}

// AnalyzeThroughput groups pull requests into size classes and recommends the class with
// the clearly shortest lead time, if any.
func AnalyzeThroughput(records []domain.ThroughputRecord) ThroughputResult {
	total := len(records)
	buckets := domain.BuildSizeBuckets(records, total)
	insight := domain.ClassifyThroughputInsight(domain.BucketMetricsFrom(buckets), total)

	result := ThroughputResult{
		Buckets:  make([]SizeBucketDTO, 0, len(buckets)),
		TotalPRs: total,
		Insight: InsightDTO{
			Type:          insight.Type,
			Message:       insight.Message,
			OptimalBucket: insight.OptimalBucket,
		},
	}
	for _, b := range buckets {
		result.Buckets = append(result.Buckets, SizeBucketDTO{
			Bucket:               b.Bucket,
			LineRange:            b.LineRange,
			AverageLeadTimeHours: b.AverageLeadTimeHours,
			PRCount:              b.PRCount,
			Percentage:           b.Percentage,
		})
	}
	return result
}
