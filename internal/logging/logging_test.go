package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", "text", &buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("[EVAL] hidden")
	logger.Warn("[EVAL] shown", "task", "27_2")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "task=27_2") {
		t.Errorf("missing attribute: %q", out)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", "json", &buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("[SIM] step", "action", "GRAB")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["msg"] != "[SIM] step" || rec["action"] != "GRAB" {
		t.Errorf("record = %v", rec)
	}
}

func TestNewRejectsUnknown(t *testing.T) {
	if _, err := New("loud", "text", &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New("info", "xml", &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
	if lvl, _ := ParseLevel("WARNING"); lvl != slog.LevelWarn {
		t.Errorf("ParseLevel(WARNING) = %v", lvl)
	}
}
