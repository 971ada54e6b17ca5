package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fieldwork/internal/config"
)

func newBufferLogger(t *testing.T, format string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)

	var handler slog.Handler
	switch format {
	case "console":
		handler = newConsoleHandler(buf, levelVar, false)
	case "json":
		handler = newJSONHandler(buf, levelVar, false)
	default:
		t.Fatalf("unknown format %q", format)
	}
	return slog.New(handler), buf
}

func TestConsoleHandlerLiftsComponentPrefix(t *testing.T) {
	logger, buf := newBufferLogger(t, "console")

	NewComponentLogger(logger, "store").Info("packet saved",
		String(FieldSurveyID, "survey-1"),
		Int("answers", 3))

	line := buf.String()
	if !strings.Contains(line, "INFO store: packet saved") {
		t.Fatalf("component prefix missing: %q", line)
	}
	if !strings.Contains(line, "survey_id=survey-1") || !strings.Contains(line, "answers=3") {
		t.Fatalf("attrs missing: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component attr should be lifted out of the kv list: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	logger, buf := newBufferLogger(t, "console")
	logger.Warn("degraded", String(FieldImpact, "packets persist to a flat file"))
	if !strings.Contains(buf.String(), `impact="packets persist to a flat file"`) {
		t.Fatalf("value not quoted: %q", buf.String())
	}
}

func TestJSONHandlerEmitsCanonicalKeys(t *testing.T) {
	logger, buf := newBufferLogger(t, "json")
	logger.Info("sync run finished", Int("synced", 2))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if payload["msg"] != "sync run finished" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts field: %v", payload)
	}
	if payload["synced"] != float64(2) {
		t.Fatalf("missing attr: %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigMirrorsToLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Format = "json"

	logger, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	logger.Info("collector started")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "fieldwork.log"))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "collector started") {
		t.Fatalf("log record not mirrored: %s", data)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger must report disabled")
	}
	logger.Error("ignored", Error(nil))
}
