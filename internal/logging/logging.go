// Package logging builds the zerolog logger handed to the gateway and use cases.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where log lines go and how verbose they are.
type Options struct {
	Verbose bool
	// LogFile, if set, receives every line at the chosen level through a rotating writer.
	LogFile string
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// New returns a logger writing to a console sink and, optionally, a rotating file.
// The returned close function releases the file and must be called on exit.
func New(opts Options) (zerolog.Logger, func() error) {
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	consoleWriter := zerolog.ConsoleWriter{
		Out:        stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal(stderr),
	}

	// Keep stdout/stderr quiet for normal runs; the report itself is the output.
	var console io.Writer = consoleWriter
	if !opts.Verbose {
		console = &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: consoleWriter},
			Level:  zerolog.WarnLevel,
		}
	}

	closeFn := func() error { return nil }
	writer := console
	if opts.LogFile != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    16, // megabytes
			MaxBackups: 8,
			MaxAge:     90, // days
			Compress:   true,
		}
		writer = zerolog.MultiLevelWriter(console, fileWriter)
		closeFn = fileWriter.Close
	}

	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, closeFn
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
