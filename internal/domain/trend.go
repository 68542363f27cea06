package domain

// TrendDirection indicates the net movement of a series.
type TrendDirection string

const (
	// TrendIncreasing indicates the series is growing.
	TrendIncreasing TrendDirection = "increasing"
	// TrendDecreasing indicates the series is shrinking.
	TrendDecreasing TrendDirection = "decreasing"
	// TrendStable indicates no meaningful movement.
	TrendStable TrendDirection = "stable"
)

const (
	// TrendWindow is the number of trailing values the half-split trend compares.
	TrendWindow = 4
	// StablePercentThreshold is the absolute half-over-half change below which a trend is stable.
	StablePercentThreshold = 10.0
)

// ChangeTrend compares the mean of the first and second half of the last TrendWindow values.
type ChangeTrend struct {
	Direction     TrendDirection
	PercentChange float64 // always >= 0; the direction carries the sign
	AnalyzedWeeks int
	StartValue    float64
	EndValue      float64
}

// ClassifyChangeTrend classifies the last TrendWindow values of a chronological series.
// It returns nil when fewer than TrendWindow values are available.
//
// When the first half averages zero the relative change is undefined: any growth is
// reported as increasing by 100%, otherwise the trend is stable.
func ClassifyChangeTrend(values []float64) *ChangeTrend {
	if len(values) < TrendWindow {
		return nil
	}

	last := values[len(values)-TrendWindow:]
	firstHalf := (last[0] + last[1]) / 2
	secondHalf := (last[2] + last[3]) / 2

	trend := &ChangeTrend{
		Direction:     TrendStable,
		AnalyzedWeeks: TrendWindow,
		StartValue:    firstHalf,
		EndValue:      secondHalf,
	}

	if firstHalf == 0 {
		if secondHalf > 0 {
			trend.Direction = TrendIncreasing
			trend.PercentChange = 100
		}
		return trend
	}

	percentChange := (secondHalf - firstHalf) / firstHalf * 100
	switch {
	case percentChange >= StablePercentThreshold:
		trend.Direction = TrendIncreasing
		trend.PercentChange = percentChange
	case percentChange <= -StablePercentThreshold:
		trend.Direction = TrendDecreasing
		trend.PercentChange = -percentChange
	}
	return trend
}
