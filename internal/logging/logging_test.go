package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tcs := []struct {
		in   string
		want slog.Level
		eErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tc := range tcs {
		got, err := ParseLevel(tc.in)
		if (err != nil) != tc.eErr {
			t.Errorf("ParseLevel(%q) error = %v, want error: %v", tc.in, err, tc.eErr)
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) == %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestComponentLoggerFollowsDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	l := Logger("network")
	var buf bytes.Buffer
	if err := Setup(&buf, "warn", true); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	l.Info("dropped")
	l.Warn("kept", "receiver", "Bob")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected exactly one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "kept" || rec["component"] != "network" || rec["receiver"] != "Bob" {
		t.Errorf("unexpected record %v", rec)
	}
}
