package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("xml")); err == nil {
		t.Error("expected an error for an unknown format")
	}
	if err := Init(WithLevel("loud")); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat(FormatJSON), WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("service").Named("team").Info(context.Background(), "scored", String("team", "core"), Int("members", 3), Error(errors.New("boom")))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "scored" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["logger"] != "service.team" {
		t.Errorf("unexpected logger name: %v", entry["logger"])
	}
	if entry["team"] != "core" {
		t.Errorf("unexpected team field: %v", entry["team"])
	}
	if src, _ := entry["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("source should point at the caller, got %q", src)
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf), WithLevel("warn")); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	ctx := context.Background()
	Get().Info(ctx, "hidden")
	Get().Warn(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn message should be written")
	}
}
