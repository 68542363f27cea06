package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/repo-insights/internal/domain"
)

func envWith(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

// validInput returns the raw input produced by the flag defaults for repo.
func validInput(repo string) RawInput {
	return RawInput{
		Repo:      repo,
		Threshold: domain.DefaultOutlierThreshold,
		Window:    domain.DefaultMovingAverageWindow,
	}
}

func TestProcessAndValidate(t *testing.T) {
	withToken := envWith(map[string]string{TokenEnv: " ghp_secret "})
	with := func(repo string, edit func(in *RawInput)) RawInput {
		in := validInput(repo)
		edit(&in)
		return in
	}

	testCases := []struct {
		name        string
		input       RawInput
		env         func(string) (string, bool)
		check       func(t *testing.T, cfg *Config)
		expectedErr error
		expectError bool
	}{
		{
			name:  "flag defaults",
			input: validInput("octo/hello"),
			env:   withToken,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, domain.Repository{Owner: "octo", Name: "hello"}, cfg.Repo)
				assert.Equal(t, OutputText, cfg.Output)
				assert.Equal(t, domain.SourceAuto, cfg.Source)
				assert.Equal(t, domain.DefaultOutlierThreshold, cfg.OutlierThreshold)
				assert.Equal(t, domain.DefaultMovingAverageWindow, cfg.MovingAverageWindow)
				assert.Equal(t, "ghp_secret", cfg.Token)
				assert.True(t, cfg.DateRange.From.IsZero())
			},
		},
		{
			name: "every field set",
			input: RawInput{
				Repo: "https://github.com/octo/hello.git", From: "2024-01-01", To: "2024-03-31",
				Output: "JSON", Source: "tags", Threshold: 3, Window: 2, Verbose: true, LogFile: "run.log",
			},
			env: withToken,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "octo/hello", cfg.Repo.FullName())
				assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cfg.DateRange.From)
				assert.Equal(t, OutputJSON, cfg.Output)
				assert.Equal(t, domain.SourceTags, cfg.Source)
				assert.Equal(t, 3.0, cfg.OutlierThreshold)
				assert.Equal(t, 2, cfg.MovingAverageWindow)
				assert.True(t, cfg.Verbose)
				assert.Equal(t, "run.log", cfg.LogFile)
			},
		},
		{
			name:  "snapshot input needs no token",
			input: with("octo/hello", func(in *RawInput) { in.Input = "snapshot.json" }),
			env:   envWith(nil),
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "snapshot.json", cfg.InputPath)
				assert.Empty(t, cfg.Token)
			},
		},
		{
			name:        "missing repo",
			input:       validInput(""),
			env:         withToken,
			expectedErr: domain.ErrInvalidRepository,
		},
		{
			name:        "malformed repo",
			input:       validInput("just-a-name"),
			env:         withToken,
			expectedErr: domain.ErrInvalidRepository,
		},
		{
			name:        "inverted date range",
			input:       with("octo/hello", func(in *RawInput) { in.From, in.To = "2024-05-01", "2024-01-01" }),
			env:         withToken,
			expectedErr: domain.ErrInvalidDateRange,
		},
		{
			name:        "unknown output",
			input:       with("octo/hello", func(in *RawInput) { in.Output = "csv" }),
			env:         withToken,
			expectError: true,
		},
		{
			name:        "unknown source",
			input:       with("octo/hello", func(in *RawInput) { in.Source = "builds" }),
			env:         withToken,
			expectError: true,
		},
		{
			name:        "negative threshold",
			input:       with("octo/hello", func(in *RawInput) { in.Threshold = -1 }),
			env:         withToken,
			expectError: true,
		},
		{
			name:        "negative window",
			input:       with("octo/hello", func(in *RawInput) { in.Window = -4 }),
			env:         withToken,
			expectError: true,
		},
		{
			name:        "explicit zero threshold",
			input:       with("octo/hello", func(in *RawInput) { in.Threshold = 0 }),
			env:         withToken,
			expectError: true,
		},
		{
			name:        "explicit zero window",
			input:       with("octo/hello", func(in *RawInput) { in.Window = 0 }),
			env:         withToken,
			expectError: true,
		},
		{
			name:        "missing token",
			input:       validInput("octo/hello"),
			env:         envWith(map[string]string{TokenEnv: "  "}),
			expectedErr: ErrMissingToken,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input := tc.input
			cfg, err := ProcessAndValidate(&input, tc.env)

			switch {
			case tc.expectedErr != nil:
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, cfg)
			case tc.expectError:
				assert.Error(t, err)
				assert.Nil(t, cfg)
			default:
				require.NoError(t, err)
				tc.check(t, cfg)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	// No .env file.
	require.NoError(t, LoadEnv())

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REPO_INSIGHTS_TEST_VALUE=from-dotenv\n"), 0o600))
	t.Setenv("REPO_INSIGHTS_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("REPO_INSIGHTS_TEST_VALUE"))

	require.NoError(t, LoadEnv())
	assert.Equal(t, "from-dotenv", os.Getenv("REPO_INSIGHTS_TEST_VALUE"))
}
