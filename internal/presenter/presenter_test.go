package presenter

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/repo-insights/internal/config"
	"github.com/naka-gawa/repo-insights/internal/domain"
	"github.com/naka-gawa/repo-insights/internal/usecase"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func sampleReport() *usecase.Report {
	optimal := domain.SizeS
	return &usecase.Report{
		Repository: "octo/hello",
		CodeChanges: &usecase.CodeChangesResult{
			WeeklyData: []usecase.WeeklyDataDTO{
				{WeekStart: "2024-01-01T00:00:00.000Z", WeekEnd: "2024-01-07T23:59:59.999Z", Additions: 90, Deletions: 10, TotalChanges: 100, PRCount: 2, AveragePRSize: 50},
				{WeekStart: "2024-01-08T00:00:00.000Z", WeekEnd: "2024-01-14T23:59:59.999Z", Additions: 900, Deletions: 100, TotalChanges: 1000, PRCount: 1, AveragePRSize: 1000},
			},
			OutlierWeeks: []usecase.OutlierWeekDTO{{WeekStart: "2024-01-08T00:00:00.000Z", TotalChanges: 1000, ZScore: 2.5}},
			Summary:      usecase.CodeChangesSummary{TotalPRs: 3, TotalAdditions: 990, TotalDeletions: 110, AverageWeeklyChanges: 550, AveragePRSize: 366.67, WeeksAnalyzed: 2},
		},
		Throughput: &usecase.ThroughputResult{
			Buckets: []usecase.SizeBucketDTO{
				{Bucket: domain.SizeS, LineRange: "1-50", AverageLeadTimeHours: 5, PRCount: 10, Percentage: 100},
			},
			Insight:  usecase.InsightDTO{Type: domain.InsightOptimal, Message: "S PRs merge fastest", OptimalBucket: &optimal},
			TotalPRs: 10,
		},
		Errors: map[string]string{usecase.MetricDeploymentFrequency: "forbidden"},
	}
}

func TestPresenter_ReportText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, config.OutputText).Report(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Repository: octo/hello")
	assert.Contains(t, out, "Code Changes")
	assert.Contains(t, out, "2024-01-08")
	assert.Contains(t, out, "outlier")
	assert.Contains(t, out, "Trend: insufficient data")
	assert.Contains(t, out, "Deployment Frequency: not available (forbidden)")
	assert.Contains(t, out, "PR Throughput")
	assert.Contains(t, out, "Insight: S PRs merge fastest")
}

func TestPresenter_ReportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, config.OutputJSON).Report(sampleReport()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "octo/hello", decoded["repository"])
	assert.Nil(t, decoded["deploymentFrequency"])
	assert.Equal(t, map[string]any{"deploymentFrequency": "forbidden"}, decoded["errors"])
}

func TestPresenter_DeploymentFrequencyText(t *testing.T) {
	result := &usecase.DeploymentFrequencyResult{
		Source: domain.SourceReleases,
		WeeklyData: []usecase.DeploymentWeekDTO{
			{WeekStart: "2024-01-01T00:00:00.000Z", Count: 1},
			{WeekStart: "2024-01-08T00:00:00.000Z", Count: 3},
		},
		Trend: usecase.DeploymentTrendDTO{
			Direction:     domain.TrendIncreasing,
			Slope:         1,
			Confidence:    1,
			MovingAverage: []float64{1, 2},
		},
		Summary: usecase.DeploymentSummary{TotalDeployments: 4, AveragePerWeek: 2, WeeksAnalyzed: 2, PerformanceLevel: domain.LevelHigh},
	}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, config.OutputText).DeploymentFrequency(result))

	out := buf.String()
	assert.Contains(t, out, "Source: releases")
	assert.Contains(t, out, "Trend: increasing (slope 1.00, confidence 1.00)")
	assert.Contains(t, out, "Performance: high")
	assert.Contains(t, out, "2024-01-08")
}

func TestPresenter_CodeChangesJSON(t *testing.T) {
	result := usecase.AnalyzeCodeChanges(nil, domain.DefaultOutlierThreshold)

	var buf bytes.Buffer
	require.NoError(t, New(&buf, config.OutputJSON).CodeChanges(&result))

	assert.JSONEq(t, `{
		"weeklyData": [],
		"trend": null,
		"outlierWeeks": [],
		"summary": {"totalPRs":0,"totalAdditions":0,"totalDeletions":0,"averageWeeklyChanges":0,"averagePRSize":0,"weeksAnalyzed":0}
	}`, buf.String())
}

func TestPresenter_CodeChangesTrendText(t *testing.T) {
	testCases := []struct {
		name      string
		direction domain.TrendDirection
		percent   float64
		expected  string
	}{
		{name: "decreasing trend is negative", direction: domain.TrendDecreasing, percent: 57.1, expected: "Trend: decreasing (-57.1%, 525.00 -> 225.00 over 4 weeks)"},
		{name: "increasing trend is positive", direction: domain.TrendIncreasing, percent: 57.1, expected: "Trend: increasing (+57.1%, 525.00 -> 225.00 over 4 weeks)"},
		{name: "stable trend is unsigned", direction: domain.TrendStable, percent: 4.2, expected: "Trend: stable (4.2%, 525.00 -> 225.00 over 4 weeks)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := &usecase.CodeChangesResult{
				WeeklyData:   []usecase.WeeklyDataDTO{},
				OutlierWeeks: []usecase.OutlierWeekDTO{},
				Trend: &usecase.TrendDTO{
					Direction:     tc.direction,
					PercentChange: tc.percent,
					AnalyzedWeeks: 4,
					StartValue:    525,
					EndValue:      225,
				},
			}

			var buf bytes.Buffer
			require.NoError(t, New(&buf, config.OutputText).CodeChanges(result))
			assert.Contains(t, buf.String(), tc.expected)
		})
	}
}

func TestPresenter_TableHeadersKeepTheirSpelling(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, config.OutputText).Report(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Avg PR Size")
	assert.Contains(t, out, "Avg Lead Time (h)")
	assert.NotContains(t, out, "P RS")
	assert.NotContains(t, out, "AVG PR SIZE")
}
