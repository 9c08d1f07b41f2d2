package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/typegraph/pkg/config"
)

// newLogger returns the CLI logger. Lines carry a short wall-clock stamp
// ("14:32:01.45"); record counts and paths go in key/value pairs.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// levelFor picks the effective level: --verbose wins over log.level.
func levelFor(cfg config.Config, verbose bool) log.Level {
	if verbose {
		return log.DebugLevel
	}
	return cfg.LogLevel()
}

// stopwatch logs how long a step took.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func startStopwatch(l *log.Logger) *stopwatch {
	return &stopwatch{logger: l, start: time.Now()}
}

// done logs msg at info level with keyvals and an "elapsed" pair rounded
// to the millisecond.
func (s *stopwatch) done(msg string, keyvals ...any) {
	elapsed := time.Since(s.start).Round(time.Millisecond)
	s.logger.Info(msg, append(keyvals, "elapsed", elapsed)...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by setup, or log.Default()
// for contexts that never went through it.
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
			return l
		}
	}
	return log.Default()
}

// cmdLogger is loggerFromContext for a running command.
func cmdLogger(cmd *cobra.Command) *log.Logger {
	return loggerFromContext(cmd.Context())
}
