package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T, level Level) (Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	log, err := NewLogger(&Config{
		Level:            level,
		Format:           JSONFormat,
		DisableTimestamp: true,
		Writer:           buf,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return log, buf
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default", *DefaultConfig(), false},
		{"debug", *DebugConfig(), false},
		{"bad level", Config{Level: "trace", Format: TextFormat, Output: StderrOutput}, true},
		{"bad format", Config{Level: InfoLevel, Format: "xml", Output: StderrOutput}, true},
		{"file without path", Config{Level: InfoLevel, Format: TextFormat, Output: FileOutput}, true},
		{"writer overrides output", Config{Level: InfoLevel, Format: TextFormat, Writer: &bytes.Buffer{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWithComponentKeepsFields(t *testing.T) {
	log, buf := newBufferLogger(t, DebugLevel)

	log.WithComponent("headers").WithField("unit", "Shopping Leste").Info("resolved")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	if entry["component"] != "headers" {
		t.Errorf("expected component field, got %v", entry["component"])
	}
	if entry["unit"] != "Shopping Leste" {
		t.Errorf("expected unit field, got %v", entry["unit"])
	}
	if entry["msg"] != "resolved" {
		t.Errorf("expected msg 'resolved', got %v", entry["msg"])
	}
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBufferLogger(t, WarnLevel)

	log.Info("hidden")
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected nothing logged below warn, got %q", buf.String())
	}

	log.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn line, got %q", buf.String())
	}
}

func TestBatchTracker(t *testing.T) {
	log, _ := newBufferLogger(t, DebugLevel)

	bt := NewBatchTracker("extract", 3, log)
	bt.Done("Shopping Leste", nil)
	bt.Done("Shopping Norte", errors.New("sheet not found"))
	bt.Done("Shopping Sul", nil)

	stats := bt.Complete()
	if stats.Done != 3 {
		t.Errorf("expected 3 done, got %d", stats.Done)
	}
	if stats.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", stats.Failed)
	}

	failures := bt.Failures()
	if len(failures) != 1 || failures[0] != "Shopping Norte" {
		t.Errorf("expected [Shopping Norte], got %v", failures)
	}
	if bt.Err("Shopping Leste") != nil {
		t.Error("expected no error for successful unit")
	}
}

func TestTimedOperation(t *testing.T) {
	log, buf := newBufferLogger(t, DebugLevel)

	want := errors.New("boom")
	if got := TimedOperation("load", log, func() error { return want }); got != want {
		t.Errorf("expected error to be returned unchanged, got %v", got)
	}
	if !strings.Contains(buf.String(), `"status":"error"`) {
		t.Errorf("expected error status in log, got %q", buf.String())
	}
}
