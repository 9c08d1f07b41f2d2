package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/typegraph/pkg/config"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		verbose bool
		want    log.Level
	}{
		{"empty level", "", false, log.InfoLevel},
		{"from config", "warn", false, log.WarnLevel},
		{"debug from config", "debug", false, log.DebugLevel},
		{"verbose wins", "error", true, log.DebugLevel},
		{"unknown level", "loud", false, log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Log.Level = tt.level
			if got := levelFor(cfg, tt.verbose); got != tt.want {
				t.Errorf("levelFor(%q, %v) = %v, want %v", tt.level, tt.verbose, got, tt.want)
			}
		})
	}
}

func TestStopwatchDone(t *testing.T) {
	var buf bytes.Buffer
	sw := startStopwatch(newLogger(&buf, log.InfoLevel))
	sw.done("rendered svg", "records", 3)

	out := buf.String()
	for _, want := range []string{"INFO", "rendered svg", "records=3", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestStopwatchBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	sw := startStopwatch(newLogger(&buf, log.WarnLevel))
	sw.done("rendered svg")
	if buf.Len() != 0 {
		t.Errorf("output = %q, want nothing at warn level", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	custom := newLogger(io.Discard, log.InfoLevel)

	if got := loggerFromContext(context.Background()); got != log.Default() {
		t.Error("bare context should yield log.Default()")
	}
	if got := loggerFromContext(withLogger(context.Background(), custom)); got != custom {
		t.Error("attached logger not returned")
	}
}

// runLogged runs the root command and returns what was logged.
func runLogged(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var logs bytes.Buffer
	root := New(&logs, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return logs.String()
}

func TestCommandDebugLines(t *testing.T) {
	doc := writeDoc(t, forwardRef)
	debugConfig := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(debugConfig, []byte("[log]\nlevel = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want []string
		not  []string
	}{
		{
			name: "inspect quiet",
			args: []string{"inspect", doc},
			not:  []string{"parsed document"},
		},
		{
			name: "inspect verbose",
			args: []string{"-v", "inspect", doc},
			want: []string{"DEBU", "parsed document", "roots=2"},
		},
		{
			name: "validate verbose",
			args: []string{"--verbose", "validate", doc},
			want: []string{"parsed document", "refs resolved", "records=2", "refs=1"},
		},
		{
			name: "validate with debug config",
			args: []string{"--config", debugConfig, "validate", doc},
			want: []string{"refs resolved"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := runLogged(t, tt.args...)
			for _, want := range tt.want {
				if !strings.Contains(logs, want) {
					t.Errorf("logs %q missing %q", logs, want)
				}
			}
			for _, not := range tt.not {
				if strings.Contains(logs, not) {
					t.Errorf("logs %q should not contain %q", logs, not)
				}
			}
		})
	}
}
