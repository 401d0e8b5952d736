package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("NewConfiguredLogger writes to both sinks", func(t *testing.T) {
		var buf bytes.Buffer
		file := filepath.Join(t.TempDir(), "logs", "songmatch.log")

		logger, closer, err := NewConfiguredLogger(&buf, LogConfig{Level: "debug", File: file})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if closer == nil {
			t.Fatal("expected closer for file output")
		}

		logger.Debug("resolved", "method", "ISRC_MATCH")
		closer.Close()

		if !strings.Contains(buf.String(), "resolved") {
			t.Errorf("expected entry in writer, got %q", buf.String())
		}

		data, err := os.ReadFile(file)
		if err != nil {
			t.Fatalf("expected log file: %v", err)
		}
		if !strings.Contains(string(data), "ISRC_MATCH") {
			t.Errorf("expected entry in log file, got %q", data)
		}
	})

	t.Run("NewConfiguredLogger rejects unknown level", func(t *testing.T) {
		_, _, err := NewConfiguredLogger(&bytes.Buffer{}, LogConfig{Level: "loud"})
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("level filters entries", func(t *testing.T) {
		var buf bytes.Buffer
		logger, _, err := NewConfiguredLogger(&buf, LogConfig{Level: "warn"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		logger.Info("hidden")
		if buf.Len() != 0 {
			t.Errorf("info should be filtered at warn level, got %q", buf.String())
		}
		if logger.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", logger.GetLevel())
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		child := WithLogger(NewLogger(&buf), "component", "resolver")
		child.Info("hello")
		if !strings.Contains(buf.String(), "component=resolver") {
			t.Errorf("expected child field in output, got %q", buf.String())
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("generated IDs should be unique")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string, got %q", a)
	}
}

func TestOpenCommand(t *testing.T) {
	tc := []struct {
		goos    string
		want    string
		wantErr bool
	}{
		{goos: "darwin", want: "open"},
		{goos: "linux", want: "xdg-open"},
		{goos: "windows", want: "rundll32"},
		{goos: "plan9", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := openCommand(tt.goos, "https://open.spotify.com/track/x")
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedPlatform) {
					t.Errorf("expected ErrUnsupportedPlatform, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != tt.want {
				t.Errorf("openCommand() = %s, want %s", name, tt.want)
			}
			if args[len(args)-1] != "https://open.spotify.com/track/x" {
				t.Errorf("url should be the last argument, got %v", args)
			}
		})
	}
}
