package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"
)

const (
	// DefaultMovingAverageWindow is the trailing window used to smooth weekly counts.
	DefaultMovingAverageWindow = 4
	// StableSlopeThreshold is the slope, in deployments per week, below which a trend is stable.
	StableSlopeThreshold = 0.1
	// MinTrendConfidence is the R² below which a regression trend is reported as stable.
	MinTrendConfidence = 0.3
)

// DeploymentSource identifies which GitHub events stand in for deployments.
type DeploymentSource string

const (
	// SourceDeployments uses the GitHub deployments API.
	SourceDeployments DeploymentSource = "deployments"
	// SourceReleases uses published releases.
	SourceReleases DeploymentSource = "releases"
	// SourceTags uses tag commit dates.
	SourceTags DeploymentSource = "tags"
	// SourceAuto picks the first non-empty source in the order above.
	SourceAuto DeploymentSource = "auto"
)

// DeploymentSourcePriority is the order in which SourceAuto tries concrete sources.
var DeploymentSourcePriority = []DeploymentSource{SourceDeployments, SourceReleases, SourceTags}

// ParseDeploymentSource validates a user supplied source name.
func ParseDeploymentSource(s string) (DeploymentSource, error) {
	switch src := DeploymentSource(strings.ToLower(strings.TrimSpace(s))); src {
	case SourceDeployments, SourceReleases, SourceTags, SourceAuto:
		return src, nil
	case "":
		return SourceAuto, nil
	default:
		return "", fmt.Errorf("invalid deployment source %q: must be auto, deployments, releases or tags", s)
	}
}

// DeploymentFrequencyLevel is the DORA performance band for deployment frequency.
type DeploymentFrequencyLevel string

const (
	// LevelElite deploys on demand, at least daily on average.
	LevelElite DeploymentFrequencyLevel = "elite"
	// LevelHigh deploys at least weekly.
	LevelHigh DeploymentFrequencyLevel = "high"
	// LevelMedium deploys at least monthly.
	LevelMedium DeploymentFrequencyLevel = "medium"
	// LevelLow deploys less than monthly.
	LevelLow DeploymentFrequencyLevel = "low"
)

// ClassifyDeploymentFrequency maps an average weekly deployment count to a DORA band.
func ClassifyDeploymentFrequency(perWeek float64) DeploymentFrequencyLevel {
	switch {
	case perWeek >= 7:
		return LevelElite
	case perWeek >= 1:
		return LevelHigh
	case perWeek >= 0.25:
		return LevelMedium
	default:
		return LevelLow
	}
}

// DeploymentTrendAnalysis is the regression-based trend of a weekly deployment series.
type DeploymentTrendAnalysis struct {
	Direction     TrendDirection
	Slope         float64 // deployments per week, per week
	Confidence    float64 // R² in [0, 1]
	MovingAverage []float64
}

// MovingAverage returns the trailing average of each point over up to window values.
// Near the start of the series the window shrinks to the points available.
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	averages := make([]float64, len(values))
	for i := range values {
		start := max(0, i-window+1)
		sum := 0.0
		for _, v := range values[start : i+1] {
			sum += v
		}
		averages[i] = sum / float64(i+1-start)
	}
	return averages
}

// LinearRegression fits y = intercept + slope*x by ordinary least squares with x = index.
// It returns the slope and the coefficient of determination clamped to [0, 1].
// A zero x variance yields slope 0; a zero y variance yields R² 0.
func LinearRegression(ys []float64) (slope, rSquared float64) {
	if len(ys) < 2 {
		return 0, 0
	}

	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	xMean, _ := stats.Mean(xs)
	yMean, _ := stats.Mean(ys)

	var sxy, sxx float64
	for i := range ys {
		dx := xs[i] - xMean
		sxy += dx * (ys[i] - yMean)
		sxx += dx * dx
	}
	if sxx != 0 {
		slope = sxy / sxx
	}
	intercept := yMean - slope*xMean

	var ssRes, ssTot float64
	for i, y := range ys {
		fitted := intercept + slope*xs[i]
		ssRes += (y - fitted) * (y - fitted)
		ssTot += (y - yMean) * (y - yMean)
	}
	if ssTot == 0 {
		return slope, 0
	}
	rSquared = 1 - ssRes/ssTot
	return slope, math.Max(0, math.Min(1, rSquared))
}

// AnalyzeDeploymentTrend smooths the weekly counts with a trailing moving average and
// classifies the regression slope of the smoothed series. A slope under
// StableSlopeThreshold or a confidence under MinTrendConfidence is stable.
func AnalyzeDeploymentTrend(counts []float64, window int) DeploymentTrendAnalysis {
	if len(counts) < 2 {
		return DeploymentTrendAnalysis{
			Direction:     TrendStable,
			MovingAverage: []float64{},
		}
	}

	smoothed := MovingAverage(counts, window)
	slope, confidence := LinearRegression(smoothed)

	direction := TrendStable
	if math.Abs(slope) >= StableSlopeThreshold && confidence >= MinTrendConfidence {
		if slope > 0 {
			direction = TrendIncreasing
		} else {
			direction = TrendDecreasing
		}
	}

	return DeploymentTrendAnalysis{
		Direction:     direction,
		Slope:         slope,
		Confidence:    confidence,
		MovingAverage: smoothed,
	}
}
