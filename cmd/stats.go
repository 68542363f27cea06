package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-insights/internal/presenter"
	"github.com/naka-gawa/repo-insights/internal/usecase"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Reports every metric of a repository",
	Long: `Computes code changes, deployment frequency and PR throughput concurrently.
A metric that cannot be computed is shown as not available instead of failing the report.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWith(cmd, func(ctx context.Context, a *usecase.Aggregator, p *presenter.Presenter) error {
			report, err := a.Report(ctx, cfg.Repo, cfg.DateRange, cfg.Source)
			if err != nil {
				return fmt.Errorf("failed to build report: %w", err)
			}
			return p.Report(report)
		})
	},
}

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Analyzes weekly code changes of merged PRs",
	Long:  `Groups merged pull requests by ISO week, flags outlier weeks and classifies the recent trend.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWith(cmd, func(ctx context.Context, a *usecase.Aggregator, p *presenter.Presenter) error {
			result, err := a.CodeChanges(ctx, cfg.Repo, cfg.DateRange)
			if err != nil {
				return fmt.Errorf("failed to analyze code changes: %w", err)
			}
			return p.CodeChanges(result)
		})
	},
}

var deploymentsCmd = &cobra.Command{
	Use:   "deployments",
	Short: "Analyzes deployment frequency",
	Long: `Counts deployments per week from GitHub deployments, releases or tags and classifies the trend
of the moving average with a least-squares fit.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWith(cmd, func(ctx context.Context, a *usecase.Aggregator, p *presenter.Presenter) error {
			result, err := a.DeploymentFrequency(ctx, cfg.Repo, cfg.DateRange, cfg.Source)
			if err != nil {
				return fmt.Errorf("failed to analyze deployment frequency: %w", err)
			}
			return p.DeploymentFrequency(result)
		})
	},
}

var throughputCmd = &cobra.Command{
	Use:   "throughput",
	Short: "Compares PR lead time across PR sizes",
	Long:  `Groups merged pull requests into S/M/L/XL size classes and reports which class merges fastest.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWith(cmd, func(ctx context.Context, a *usecase.Aggregator, p *presenter.Presenter) error {
			result, err := a.Throughput(ctx, cfg.Repo, cfg.DateRange)
			if err != nil {
				return fmt.Errorf("failed to analyze throughput: %w", err)
			}
			return p.Throughput(result)
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd, changesCmd, deploymentsCmd, throughputCmd)
}
