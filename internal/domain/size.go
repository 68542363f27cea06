package domain

import "time"

// SizeBucketType is an ordinal pull request size class.
type SizeBucketType string

const (
	// SizeS covers pull requests of at most 50 changed lines, including empty ones.
	SizeS SizeBucketType = "S"
	// SizeM covers 51 to 200 changed lines.
	SizeM SizeBucketType = "M"
	// SizeL covers 201 to 500 changed lines.
	SizeL SizeBucketType = "L"
	// SizeXL covers more than 500 changed lines.
	SizeXL SizeBucketType = "XL"
)

// SizeBucketOrder lists the size classes from smallest to largest.
var SizeBucketOrder = []SizeBucketType{SizeS, SizeM, SizeL, SizeXL}

// sizeUpperBounds are the inclusive maxima of the S, M and L classes.
const (
	maxSmallChanges  = 50
	maxMediumChanges = 200
	maxLargeChanges  = 500
)

// LineRange returns the human readable change range of a size class.
func (b SizeBucketType) LineRange() string {
	switch b {
	case SizeS:
		return "1-50"
	case SizeM:
		return "51-200"
	case SizeL:
		return "201-500"
	default:
		return "501+"
	}
}

// ClassifySize maps a change volume (additions + deletions) to its size class.
// Volumes of zero are counted as S.
func ClassifySize(totalChanges int) SizeBucketType {
	switch {
	case totalChanges <= maxSmallChanges:
		return SizeS
	case totalChanges <= maxMediumChanges:
		return SizeM
	case totalChanges <= maxLargeChanges:
		return SizeL
	default:
		return SizeXL
	}
}

// SizeBucket summarizes the pull requests of one size class.
type SizeBucket struct {
	Bucket               SizeBucketType
	LineRange            string
	AverageLeadTimeHours float64
	PRCount              int
	Percentage           float64
}

// BuildSizeBuckets classifies records and returns exactly one bucket per size class in
// S, M, L, XL order. Percentages are relative to totalCount; empty buckets report zeros.
func BuildSizeBuckets(records []ThroughputRecord, totalCount int) []SizeBucket {
	leadTimes := make(map[SizeBucketType]time.Duration, len(SizeBucketOrder))
	counts := make(map[SizeBucketType]int, len(SizeBucketOrder))
	for _, r := range records {
		b := ClassifySize(r.Additions + r.Deletions)
		leadTimes[b] += r.LeadTime
		counts[b]++
	}

	buckets := make([]SizeBucket, 0, len(SizeBucketOrder))
	for _, b := range SizeBucketOrder {
		bucket := SizeBucket{
			Bucket:    b,
			LineRange: b.LineRange(),
			PRCount:   counts[b],
		}
		if bucket.PRCount > 0 {
			bucket.AverageLeadTimeHours = leadTimes[b].Hours() / float64(bucket.PRCount)
			if totalCount > 0 {
				bucket.Percentage = 100 * float64(bucket.PRCount) / float64(totalCount)
			}
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}
