package domain

import "fmt"

// InsightType is the category of a throughput recommendation.
type InsightType string

const (
	// InsightOptimal means one size class merges measurably faster than the others.
	InsightOptimal InsightType = "optimal"
	// InsightNoDifference means lead times are within 20% of each other across sizes.
	InsightNoDifference InsightType = "no_difference"
	// InsightInsufficientData means too few pull requests were merged to compare sizes.
	InsightInsufficientData InsightType = "insufficient_data"
)

const (
	// MinInsightSampleSize is the number of pull requests needed before sizes are compared.
	MinInsightSampleSize = 10
	// leadTimeTolerance is the ratio of slowest to fastest lead time still considered equal.
	leadTimeTolerance = 1.2
)

// BucketMetric is the lead time summary of one size class fed to the insight classifier.
type BucketMetric struct {
	Bucket               SizeBucketType
	AverageLeadTimeHours float64
	PRCount              int
}

// ThroughputInsight is a recommendation about which pull request size merges fastest.
// OptimalBucket is set only when Type is InsightOptimal.
type ThroughputInsight struct {
	Type          InsightType
	Message       string
	OptimalBucket *SizeBucketType
}

// BucketMetricsFrom extracts classifier input from built size buckets.
func BucketMetricsFrom(buckets []SizeBucket) []BucketMetric {
	metrics := make([]BucketMetric, len(buckets))
	for i, b := range buckets {
		metrics[i] = BucketMetric{
			Bucket:               b.Bucket,
			AverageLeadTimeHours: b.AverageLeadTimeHours,
			PRCount:              b.PRCount,
		}
	}
	return metrics
}

// ClassifyThroughputInsight decides whether a size class has a clearly shorter lead time.
// Negative counts or lead times are programming errors and cause a panic.
func ClassifyThroughputInsight(metrics []BucketMetric, totalCount int) ThroughputInsight {
	if totalCount < 0 {
		panic(fmt.Sprintf("domain: negative total PR count %d", totalCount))
	}
	for _, m := range metrics {
		if m.PRCount < 0 {
			panic(fmt.Sprintf("domain: negative PR count %d for bucket %s", m.PRCount, m.Bucket))
		}
		if m.AverageLeadTimeHours < 0 {
			panic(fmt.Sprintf("domain: negative lead time %f for bucket %s", m.AverageLeadTimeHours, m.Bucket))
		}
	}

	if totalCount < MinInsightSampleSize {
		return insufficientData(totalCount)
	}

	var populated []BucketMetric
	for _, m := range metrics {
		if m.PRCount > 0 {
			populated = append(populated, m)
		}
	}
	if len(populated) == 0 {
		return insufficientData(totalCount)
	}

	fastest := populated[0]
	maxLT := populated[0].AverageLeadTimeHours
	for _, m := range populated[1:] {
		if m.AverageLeadTimeHours < fastest.AverageLeadTimeHours {
			fastest = m
		}
		maxLT = max(maxLT, m.AverageLeadTimeHours)
	}
	minLT := fastest.AverageLeadTimeHours

	closeEnough := maxLT <= minLT*leadTimeTolerance
	if minLT == 0 {
		closeEnough = maxLT == 0
	}
	if closeEnough {
		return ThroughputInsight{
			Type:    InsightNoDifference,
			Message: "Lead time does not differ significantly across PR sizes",
		}
	}

	bucket := fastest.Bucket
	return ThroughputInsight{
		Type: InsightOptimal,
		Message: fmt.Sprintf("%s PRs (%s lines) merge fastest with an average lead time of %.1f hours",
			bucket, bucket.LineRange(), minLT),
		OptimalBucket: &bucket,
	}
}

func insufficientData(totalCount int) ThroughputInsight {
	return ThroughputInsight{
		Type:    InsightInsufficientData,
		Message: fmt.Sprintf("At least %d merged PRs are needed to compare sizes (found %d)", MinInsightSampleSize, totalCount),
	}
}
