// Package config resolves the raw command-line, environment and file inputs into a
// validated Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/naka-gawa/repo-insights/internal/domain"
)

// Output formats.
const (
	OutputJSON = "json"
	OutputText = "text"
)

// TokenEnv is the environment variable holding the GitHub token.
const TokenEnv = "GITHUB_TOKEN"

// ErrMissingToken is returned when live GitHub access is needed but no token is set.
var ErrMissingToken = errors.New(TokenEnv + " environment variable is not set")

// RawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type RawInput struct {
	Repo      string  `mapstructure:"repo"`
	From      string  `mapstructure:"from"`
	To        string  `mapstructure:"to"`
	Input     string  `mapstructure:"input"`
	Output    string  `mapstructure:"output"`
	Source    string  `mapstructure:"source"`
	Threshold float64 `mapstructure:"threshold"`
	Window    int     `mapstructure:"window"`
	Verbose   bool    `mapstructure:"verbose"`
	LogFile   string  `mapstructure:"log-file"`
}

// Config is the validated configuration shared by every command.
type Config struct {
	Repo      domain.Repository
	DateRange domain.DateRange
	// InputPath is a snapshot file to read instead of calling GitHub. "-" is stdin.
	InputPath           string
	Output              string
	Source              domain.DeploymentSource
	OutlierThreshold    float64
	MovingAverageWindow int
	Token               string
	Verbose             bool
	LogFile             string
}

// LoadEnv reads a .env file from the working directory into the process environment.
// Variables already set take precedence. A missing file is not an error.
func LoadEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// ProcessAndValidate parses and checks every raw input and returns the final Config.
// lookupEnv is usually os.LookupEnv.
func ProcessAndValidate(input *RawInput, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := &Config{
		InputPath: strings.TrimSpace(input.Input),
		Verbose:   input.Verbose,
		LogFile:   strings.TrimSpace(input.LogFile),
	}

	if strings.TrimSpace(input.Repo) == "" {
		return nil, fmt.Errorf("%w: --repo is required", domain.ErrInvalidRepository)
	}
	repo, err := domain.ParseRepository(input.Repo)
	if err != nil {
		return nil, err
	}
	cfg.Repo = repo

	dr, err := domain.NewDateRange(strings.TrimSpace(input.From), strings.TrimSpace(input.To))
	if err != nil {
		return nil, err
	}
	cfg.DateRange = dr

	switch output := strings.ToLower(strings.TrimSpace(input.Output)); output {
	case "":
		cfg.Output = OutputText
	case OutputJSON, OutputText:
		cfg.Output = output
	default:
		return nil, fmt.Errorf("invalid output format %q: must be %s or %s", input.Output, OutputJSON, OutputText)
	}

	source, err := domain.ParseDeploymentSource(strings.ToLower(strings.TrimSpace(input.Source)))
	if err != nil {
		return nil, err
	}
	cfg.Source = source

	// Flags carry the defaults, so a zero here was asked for explicitly.
	if input.Threshold <= 0 {
		return nil, fmt.Errorf("invalid threshold %v: must be positive", input.Threshold)
	}
	cfg.OutlierThreshold = input.Threshold

	if input.Window <= 0 {
		return nil, fmt.Errorf("invalid window %d: must be positive", input.Window)
	}
	cfg.MovingAverageWindow = input.Window

	// A snapshot makes the run fully offline.
	if cfg.InputPath == "" {
		token, ok := lookupEnv(TokenEnv)
		if !ok || strings.TrimSpace(token) == "" {
			return nil, ErrMissingToken
		}
		cfg.Token = strings.TrimSpace(token)
	}

	return cfg, nil
}
