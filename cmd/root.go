// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/naka-gawa/repo-insights/internal/config"
	"github.com/naka-gawa/repo-insights/internal/domain"
	"github.com/naka-gawa/repo-insights/internal/gateway"
	"github.com/naka-gawa/repo-insights/internal/logging"
	"github.com/naka-gawa/repo-insights/internal/presenter"
	"github.com/naka-gawa/repo-insights/internal/usecase"
)

// cfg holds the validated, final configuration. It is populated in PersistentPreRunE.
var cfg *config.Config

// logger is shared by every command once setup has run.
var logger = zerolog.Nop()

// closeLog releases the log file, if any.
var closeLog = func() error { return nil }

var rootCmd = &cobra.Command{
	Use:   "repo-insights",
	Short: "A CLI tool to analyze the delivery statistics of a GitHub repository.",
	Long: `repo-insights analyzes the merged pull requests and deployments of a GitHub repository.
It reports weekly code churn with outlier weeks and trend, deployment frequency with a
regression trend and DORA level, and how pull request size relates to lead time.
You can specify a date range to filter the results, or analyze an offline snapshot with --input.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeLog()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default is ./.repo-insights.yaml or $HOME/.repo-insights.yaml)")
	flags.StringP("repo", "r", "", "Target repository as owner/name or a GitHub URL (required)")
	flags.String("from", "", "Start date of the analyzed period (YYYY-MM-DD)")
	flags.String("to", "", "End date of the analyzed period (YYYY-MM-DD)")
	flags.StringP("input", "i", "", "Read a JSON snapshot instead of calling GitHub (\"-\" for stdin)")
	flags.StringP("output", "o", config.OutputText, "Output format: text or json")
	flags.String("source", string(domain.SourceAuto), "Deployment source: auto, deployments, releases or tags")
	flags.Float64("threshold", domain.DefaultOutlierThreshold, "Z-score above which a week is an outlier")
	flags.Int("window", domain.DefaultMovingAverageWindow, "Moving average window in weeks for the deployment trend")
	flags.BoolP("verbose", "v", false, "Enable verbose/debug logging")
	flags.String("log-file", "", "Also write logs to this file (rotated)")

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".repo-insights")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("REPO_INSIGHTS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// setup merges every configuration source, validates it and builds the logger.
func setup(_ *cobra.Command, _ []string) error {
	if err := config.LoadEnv(); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	input := &config.RawInput{}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	validated, err := config.ProcessAndValidate(input, os.LookupEnv)
	if err != nil {
		return err
	}
	cfg = validated

	logger, closeLog = logging.New(logging.Options{Verbose: cfg.Verbose, LogFile: cfg.LogFile})
	logger.Debug().
		Str("repo", cfg.Repo.FullName()).
		Str("source", string(cfg.Source)).
		Bool("offline", cfg.InputPath != "").
		Msg("Configuration loaded.")
	return nil
}

// newAggregator injects the configured fetcher into the use case.
func newAggregator() (*usecase.Aggregator, error) {
	var (
		fetcher gateway.Fetcher
		err     error
	)
	if cfg.InputPath != "" {
		fetcher, err = gateway.NewSnapshotGateway(cfg.InputPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
	} else {
		fetcher, err = gateway.NewGitHubGateway(cfg.Token, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
	}

	return usecase.NewAggregator(fetcher, logger, usecase.Options{
		OutlierThreshold:    cfg.OutlierThreshold,
		MovingAverageWindow: cfg.MovingAverageWindow,
	}), nil
}

// runWith builds the aggregator and presenter for a command.
func runWith(cmd *cobra.Command, run func(ctx context.Context, a *usecase.Aggregator, p *presenter.Presenter) error) error {
	aggregator, err := newAggregator()
	if err != nil {
		return err
	}
	return run(cmd.Context(), aggregator, presenter.New(cmd.OutOrStdout(), cfg.Output))
}
