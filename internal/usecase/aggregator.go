package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/repo-insights/internal/domain"
	"github.com/naka-gawa/repo-insights/internal/gateway"
)

// Metric names used as keys in Report.Errors.
const (
	MetricCodeChanges         = "codeChanges"
	MetricDeploymentFrequency = "deploymentFrequency"
	MetricThroughput          = "throughput"
)

// ErrReportUnavailable is returned when every metric of a report failed.
var ErrReportUnavailable = errors.New("no metric could be computed")

// Options tunes the statistics applied by the Aggregator.
type Options struct {
	OutlierThreshold    float64
	MovingAverageWindow int
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		OutlierThreshold:    domain.DefaultOutlierThreshold,
		MovingAverageWindow: domain.DefaultMovingAverageWindow,
	}
}

// Report bundles every metric for one repository. A metric that failed is nil and its
// error message is recorded under its name in Errors.
type Report struct {
	Repository          string                     `json:"repository"`
	CodeChanges         *CodeChangesResult         `json:"codeChanges"`
	DeploymentFrequency *DeploymentFrequencyResult `json:"deploymentFrequency"`
	Throughput          *ThroughputResult          `json:"throughput"`
	Errors              map[string]string          `json:"errors,omitempty"`
}

// Aggregator is the use case for aggregating repository analytics.
// It orchestrates the fetching of raw history and the statistics computed over it.
type Aggregator struct {
	fetcher gateway.Fetcher
	logger  zerolog.Logger
	opts    Options
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, logger zerolog.Logger, opts Options) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
		opts:    opts,
	}
}

// CodeChanges fetches merged pull requests and analyzes weekly code churn.
func (a *Aggregator) CodeChanges(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) (*CodeChangesResult, error) {
	prs, err := a.fetcher.FetchMergedPullRequests(ctx, repo, dateRange)
	if err != nil {
		return nil, err
	}
	return a.codeChanges(prs, dateRange), nil
}

// Throughput fetches merged pull requests and compares lead times across PR sizes.
func (a *Aggregator) Throughput(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) (*ThroughputResult, error) {
	prs, err := a.fetcher.FetchMergedPullRequests(ctx, repo, dateRange)
	if err != nil {
		return nil, err
	}
	return a.throughput(prs, dateRange), nil
}

func (a *Aggregator) codeChanges(prs []domain.RawPullRequest, dateRange domain.DateRange) *CodeChangesResult {
	var records []domain.ChangeRecord
	for _, r := range domain.NormalizeChangeRecords(prs) {
		if dateRange.Contains(r.MergedAt) {
			records = append(records, r)
		}
	}
	a.logger.Debug().Int("fetched", len(prs)).Int("usable", len(records)).Msg("Usecase: Analyzing code changes...")
	result := AnalyzeCodeChanges(records, a.opts.OutlierThreshold)
	return &result
}

func (a *Aggregator) throughput(prs []domain.RawPullRequest, dateRange domain.DateRange) *ThroughputResult {
	var records []domain.ThroughputRecord
	for _, r := range domain.NormalizeThroughputRecords(prs) {
		if dateRange.Contains(r.MergedAt) {
			records = append(records, r)
		}
	}
	a.logger.Debug().Int("fetched", len(prs)).Int("usable", len(records)).Msg("Usecase: Analyzing throughput...")
	result := AnalyzeThroughput(records)
	return &result
}

// DeploymentFrequency fetches deployment events from the given source and analyzes how
// often they happen. With domain.SourceAuto all sources are fetched concurrently and the
// first non-empty one in domain.DeploymentSourcePriority order is used; a source that fails
// is skipped. Auto mode fails only if every source failed.
func (a *Aggregator) DeploymentFrequency(ctx context.Context, repo domain.Repository, dateRange domain.DateRange, source domain.DeploymentSource) (*DeploymentFrequencyResult, error) {
	if source != domain.SourceAuto {
		records, err := a.deploymentRecords(ctx, repo, dateRange, source)
		if err != nil {
			return nil, err
		}
		return a.deploymentFrequency(records, source), nil
	}

	sources := domain.DeploymentSourcePriority
	fetched := make([][]domain.DeploymentRecord, len(sources))
	errs := make([]error, len(sources))

	// Each source keeps its own error; one failure must not cancel the others.
	var eg errgroup.Group
	for i, src := range sources {
		eg.Go(func() error {
			fetched[i], errs[i] = a.deploymentRecords(ctx, repo, dateRange, src)
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chosen := -1
	for i, src := range sources {
		if errs[i] != nil {
			a.logger.Warn().Err(errs[i]).Str("source", string(src)).Msg("Usecase: deployment source not available")
			continue
		}
		if chosen == -1 {
			chosen = i
		}
		if len(fetched[i]) > 0 {
			chosen = i
			break
		}
	}
	if chosen == -1 {
		wrapped := make([]error, len(sources))
		for i, src := range sources {
			wrapped[i] = fmt.Errorf("failed to fetch %s: %w", src, errs[i])
		}
		return nil, errors.Join(wrapped...)
	}

	return a.deploymentFrequency(fetched[chosen], sources[chosen]), nil
}

func (a *Aggregator) deploymentFrequency(records []domain.DeploymentRecord, source domain.DeploymentSource) *DeploymentFrequencyResult {
	a.logger.Debug().
		Str("source", string(source)).
		Int("events", len(records)).
		Msg("Usecase: Analyzing deployment frequency...")
	result := AnalyzeDeploymentFrequency(records, source, a.opts.MovingAverageWindow)
	return &result
}

// deploymentRecords fetches one source and keeps the events inside dateRange.
func (a *Aggregator) deploymentRecords(ctx context.Context, repo domain.Repository, dateRange domain.DateRange, source domain.DeploymentSource) ([]domain.DeploymentRecord, error) {
	raw, err := a.fetchDeploymentSource(ctx, repo, dateRange, source)
	if err != nil {
		return nil, err
	}
	var records []domain.DeploymentRecord
	for _, r := range domain.NormalizeDeploymentRecords(raw) {
		if dateRange.Contains(r.Timestamp) {
			records = append(records, r)
		}
	}
	return records, nil
}

func (a *Aggregator) fetchDeploymentSource(ctx context.Context, repo domain.Repository, dateRange domain.DateRange, source domain.DeploymentSource) ([]domain.RawDeployment, error) {
	switch source {
	case domain.SourceDeployments:
		return a.fetcher.FetchDeployments(ctx, repo, dateRange)
	case domain.SourceReleases:
		return a.fetcher.FetchReleases(ctx, repo, dateRange)
	case domain.SourceTags:
		return a.fetcher.FetchTags(ctx, repo, dateRange)
	default:
		return nil, fmt.Errorf("unsupported deployment source %q", source)
	}
}

// Report computes every metric concurrently. A failing metric is logged and left nil so
// the rest of the report still renders; an error is returned only if all of them failed
// or ctx was canceled.
func (a *Aggregator) Report(ctx context.Context, repo domain.Repository, dateRange domain.DateRange, source domain.DeploymentSource) (*Report, error) {
	a.logger.Info().Str("repo", repo.FullName()).Msg("Usecase: Starting report generation...")

	report := &Report{Repository: repo.FullName()}
	var (
		mu       sync.Mutex
		failures = make(map[string]string)
	)
	recordFailure := func(metric string, err error) {
		a.logger.Warn().Err(err).Str("metric", metric).Msg("Usecase: metric not available")
		mu.Lock()
		failures[metric] = err.Error()
		mu.Unlock()
	}

	var eg errgroup.Group

	// Both PR-based metrics share a single fetch.
	eg.Go(func() error {
		prs, err := a.fetcher.FetchMergedPullRequests(ctx, repo, dateRange)
		if err != nil {
			recordFailure(MetricCodeChanges, err)
			recordFailure(MetricThroughput, err)
			return nil
		}
		report.CodeChanges = a.codeChanges(prs, dateRange)
		report.Throughput = a.throughput(prs, dateRange)
		return nil
	})

	eg.Go(func() error {
		result, err := a.DeploymentFrequency(ctx, repo, dateRange, source)
		if err != nil {
			recordFailure(MetricDeploymentFrequency, err)
			return nil
		}
		report.DeploymentFrequency = result
		return nil
	})

	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(failures) > 0 {
		report.Errors = failures
	}
	if report.CodeChanges == nil && report.Throughput == nil && report.DeploymentFrequency == nil {
		return nil, fmt.Errorf("%w for %s", ErrReportUnavailable, repo.FullName())
	}

	a.logger.Info().Int("failedMetrics", len(failures)).Msg("Usecase: Report complete.")
	return report, nil
}
