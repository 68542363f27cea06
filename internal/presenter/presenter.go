// Package presenter renders analysis results as JSON or as human-readable tables.
package presenter

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/naka-gawa/repo-insights/internal/config"
	"github.com/naka-gawa/repo-insights/internal/domain"
	"github.com/naka-gawa/repo-insights/internal/usecase"
)

const notAvailable = "not available"

var (
	increasingColor = color.New(color.FgGreen, color.Bold)
	decreasingColor = color.New(color.FgRed, color.Bold)
	stableColor     = color.New(color.FgYellow)
	headingColor    = color.New(color.Bold)
	mutedColor      = color.New(color.FgHiBlack)
)

// Presenter writes results to w in a single output format.
type Presenter struct {
	w      io.Writer
	format string
}

// New returns a Presenter for config.OutputJSON or config.OutputText.
func New(w io.Writer, format string) *Presenter {
	return &Presenter{w: w, format: format}
}

// CodeChanges renders a code change analysis.
func (p *Presenter) CodeChanges(result *usecase.CodeChangesResult) error {
	if p.format == config.OutputJSON {
		return writeJSON(p.w, result)
	}
	return p.codeChangesText(result)
}

// DeploymentFrequency renders a deployment frequency analysis.
func (p *Presenter) DeploymentFrequency(result *usecase.DeploymentFrequencyResult) error {
	if p.format == config.OutputJSON {
		return writeJSON(p.w, result)
	}
	return p.deploymentFrequencyText(result)
}

// Throughput renders a size vs. lead time analysis.
func (p *Presenter) Throughput(result *usecase.ThroughputResult) error {
	if p.format == config.OutputJSON {
		return writeJSON(p.w, result)
	}
	return p.throughputText(result)
}

// Report renders every section of a report. Sections that failed are shown as not available.
func (p *Presenter) Report(report *usecase.Report) error {
	if p.format == config.OutputJSON {
		return writeJSON(p.w, report)
	}

	if _, err := fmt.Fprintf(p.w, "Repository: %s\n\n", report.Repository); err != nil {
		return err
	}

	sections := []struct {
		metric string
		render func() error
		ok     bool
	}{
		{usecase.MetricCodeChanges, func() error { return p.codeChangesText(report.CodeChanges) }, report.CodeChanges != nil},
		{usecase.MetricDeploymentFrequency, func() error { return p.deploymentFrequencyText(report.DeploymentFrequency) }, report.DeploymentFrequency != nil},
		{usecase.MetricThroughput, func() error { return p.throughputText(report.Throughput) }, report.Throughput != nil},
	}
	for _, s := range sections {
		if !s.ok {
			if err := p.unavailable(s.metric, report.Errors[s.metric]); err != nil {
				return err
			}
			continue
		}
		if err := s.render(); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(p.w); err != nil {
			return err
		}
	}
	return nil
}

func (p *Presenter) unavailable(metric, reason string) error {
	line := fmt.Sprintf("%s: %s", sectionTitle(metric), notAvailable)
	if reason != "" {
		line += " (" + reason + ")"
	}
	_, err := fmt.Fprintln(p.w, mutedColor.Sprint(line)+"\n")
	return err
}

func (p *Presenter) codeChangesText(result *usecase.CodeChangesResult) error {
	if err := p.heading(usecase.MetricCodeChanges); err != nil {
		return err
	}

	outliers := make(map[string]bool, len(result.OutlierWeeks))
	for _, o := range result.OutlierWeeks {
		outliers[o.WeekStart] = true
	}

	rows := make([][]string, 0, len(result.WeeklyData))
	for _, w := range result.WeeklyData {
		mark := ""
		if outliers[w.WeekStart] {
			mark = decreasingColor.Sprint("outlier")
		}
		rows = append(rows, []string{
			weekLabel(w.WeekStart),
			strconv.Itoa(w.PRCount),
			strconv.Itoa(w.Additions),
			strconv.Itoa(w.Deletions),
			strconv.Itoa(w.TotalChanges),
			formatFloat(w.AveragePRSize),
			mark,
		})
	}
	if err := p.table([]string{"Week", "PRs", "Additions", "Deletions", "Total", "Avg PR Size", ""}, rows); err != nil {
		return err
	}

	trend := mutedColor.Sprint("insufficient data")
	if result.Trend != nil {
		trend = fmt.Sprintf("%s (%s, %s -> %s over %d weeks)",
			directionLabel(result.Trend.Direction),
			signedPercent(result.Trend.Direction, result.Trend.PercentChange),
			formatFloat(result.Trend.StartValue),
			formatFloat(result.Trend.EndValue),
			result.Trend.AnalyzedWeeks)
	}
	s := result.Summary
	_, err := fmt.Fprintf(p.w, "Trend: %s\nPRs: %d  Additions: %d  Deletions: %d  Avg weekly changes: %s  Avg PR size: %s\n",
		trend, s.TotalPRs, s.TotalAdditions, s.TotalDeletions, formatFloat(s.AverageWeeklyChanges), formatFloat(s.AveragePRSize))
	return err
}

func (p *Presenter) deploymentFrequencyText(result *usecase.DeploymentFrequencyResult) error {
	if err := p.heading(usecase.MetricDeploymentFrequency); err != nil {
		return err
	}

	rows := make([][]string, 0, len(result.WeeklyData))
	for i, w := range result.WeeklyData {
		avg := ""
		if i < len(result.Trend.MovingAverage) {
			avg = formatFloat(result.Trend.MovingAverage[i])
		}
		rows = append(rows, []string{weekLabel(w.WeekStart), strconv.Itoa(w.Count), avg})
	}
	if err := p.table([]string{"Week", "Deployments", "Moving Avg"}, rows); err != nil {
		return err
	}

	s := result.Summary
	_, err := fmt.Fprintf(p.w, "Source: %s\nTrend: %s (slope %s, confidence %s)\nDeployments: %d  Per week: %s  Performance: %s\n",
		result.Source,
		directionLabel(result.Trend.Direction),
		formatFloat(result.Trend.Slope),
		formatFloat(result.Trend.Confidence),
		s.TotalDeployments, formatFloat(s.AveragePerWeek), levelLabel(s.PerformanceLevel))
	return err
}

func (p *Presenter) throughputText(result *usecase.ThroughputResult) error {
	if err := p.heading(usecase.MetricThroughput); err != nil {
		return err
	}

	rows := make([][]string, 0, len(result.Buckets))
	for _, b := range result.Buckets {
		name := string(b.Bucket)
		if result.Insight.OptimalBucket != nil && *result.Insight.OptimalBucket == b.Bucket {
			name = increasingColor.Sprint(name)
		}
		rows = append(rows, []string{
			name,
			b.LineRange,
			strconv.Itoa(b.PRCount),
			formatFloat(b.Percentage) + "%",
			formatFloat(b.AverageLeadTimeHours),
		})
	}
	if err := p.table([]string{"Size", "Lines", "PRs", "Share", "Avg Lead Time (h)"}, rows); err != nil {
		return err
	}

	_, err := fmt.Fprintf(p.w, "PRs: %d\nInsight: %s\n", result.TotalPRs, insightLabel(result.Insight))
	return err
}

func (p *Presenter) heading(metric string) error {
	_, err := fmt.Fprintln(p.w, headingColor.Sprint(sectionTitle(metric)))
	return err
}

func (p *Presenter) table(header []string, rows [][]string) error {
	table := tablewriter.NewWriter(p.w)
	table.Header(header)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Header.Formatting.AutoFormat = tw.Off
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func sectionTitle(metric string) string {
	switch metric {
	case usecase.MetricCodeChanges:
		return "Code Changes"
	case usecase.MetricDeploymentFrequency:
		return "Deployment Frequency"
	case usecase.MetricThroughput:
		return "PR Throughput"
	default:
		return metric
	}
}

func directionLabel(d domain.TrendDirection) string {
	switch d {
	case domain.TrendIncreasing:
		return increasingColor.Sprint(string(d))
	case domain.TrendDecreasing:
		return decreasingColor.Sprint(string(d))
	default:
		return stableColor.Sprint(string(d))
	}
}

func levelLabel(l domain.DeploymentFrequencyLevel) string {
	switch l {
	case domain.LevelElite, domain.LevelHigh:
		return increasingColor.Sprint(string(l))
	case domain.LevelMedium:
		return stableColor.Sprint(string(l))
	default:
		return decreasingColor.Sprint(string(l))
	}
}

func insightLabel(i usecase.InsightDTO) string {
	switch i.Type {
	case domain.InsightOptimal:
		return increasingColor.Sprint(i.Message)
	case domain.InsightNoDifference:
		return stableColor.Sprint(i.Message)
	default:
		return mutedColor.Sprint(i.Message)
	}
}

// signedPercent prints the unsigned percent change with the sign of its direction.
func signedPercent(d domain.TrendDirection, pct float64) string {
	switch d {
	case domain.TrendIncreasing:
		return fmt.Sprintf("+%.1f%%", pct)
	case domain.TrendDecreasing:
		return fmt.Sprintf("-%.1f%%", pct)
	default:
		return fmt.Sprintf("%.1f%%", pct)
	}
}

// weekLabel shortens an ISO timestamp to its date.
func weekLabel(ts string) string {
	date, _, _ := strings.Cut(ts, "T")
	return date
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

