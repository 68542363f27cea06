package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		name        string
		verbose     bool
		expected    []string
		notExpected []string
	}{
		{
			name:        "quiet run only shows warnings",
			expected:    []string{"warn line"},
			notExpected: []string{"info line", "debug line"},
		},
		{
			name:     "verbose run shows debug",
			verbose:  true,
			expected: []string{"warn line", "info line", "debug line"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, closeFn := New(Options{Verbose: tc.verbose, Stderr: &buf})
			defer func() { _ = closeFn() }()

			logger.Debug().Msg("debug line")
			logger.Info().Msg("info line")
			logger.Warn().Msg("warn line")

			for _, s := range tc.expected {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tc.notExpected {
				assert.NotContains(t, buf.String(), s)
			}
			// A buffer is never a terminal.
			assert.NotContains(t, buf.String(), "\x1b[")
		})
	}
}

func TestNew_LogFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "repo-insights.log")

	logger, closeFn := New(Options{LogFile: path, Stderr: &buf})
	logger.Info().Str("repo", "octo/hello").Msg("info line")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"info line"`)
	assert.Contains(t, string(data), `"repo":"octo/hello"`)
	assert.Empty(t, buf.String())
}
