package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestHelpers(t *testing.T) {
	t.Run("GenerateState is unique and URL safe", func(t *testing.T) {
		a, err := GenerateState()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		b, _ := GenerateState()
		if a == b {
			t.Error("expected distinct state values")
		}
		if strings.ContainsAny(a, "+/=") {
			t.Errorf("expected URL-safe state, got %s", a)
		}
	})

	t.Run("ParseLogLevel", func(t *testing.T) {
		tc := []struct {
			in   string
			want log.Level
		}{
			{"debug", log.DebugLevel},
			{" WARN ", log.WarnLevel},
			{"error", log.ErrorLevel},
			{"nonsense", log.InfoLevel},
			{"", log.InfoLevel},
		}
		for _, tt := range tc {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "analysis", "abc")
		logger.Info("hello")
		if !strings.Contains(buf.String(), "analysis=abc") {
			t.Errorf("expected child field in output, got %s", buf.String())
		}
	})

	t.Run("browserCommand", func(t *testing.T) {
		for _, goos := range []string{"darwin", "linux", "windows"} {
			if _, err := browserCommand(goos, "http://example.com"); err != nil {
				t.Errorf("expected command for %s, got %v", goos, err)
			}
		}
		if _, err := browserCommand("plan9", "http://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
