package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lfkv/epochkv/internal/logging"
)

func TestNew_JSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.New(&buf, "info", "json")
	logger.Info().Str("component", "test").Msg("hello")

	if got := buf.String(); !strings.Contains(got, `"component":"test"`) {
		t.Fatalf("expected JSON output, got: %s", got)
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.New(&buf, "debug", "console")
	logger.Debug().Msg("hello")

	if buf.Len() == 0 {
		t.Fatalf("expected non-empty console output")
	}
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.New(&buf, "not-a-level", "json")
	logger.Debug().Msg("should be filtered")
	logger.Info().Msg("should appear")

	if got := buf.String(); strings.Contains(got, "should be filtered") {
		t.Fatalf("debug message should have been filtered at info level: %s", got)
	}

	if got := buf.String(); !strings.Contains(got, "should appear") {
		t.Fatalf("info message should have been logged at info level: %s", got)
	}
}
