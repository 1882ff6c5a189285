package logger

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonho/sentbt/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_FieldChaining(t *testing.T) {
	cfg := &config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"}
	log := New(cfg)

	// Chained loggers must be independent copies.
	child := log.WithField("stage", "factors")
	if child == log {
		t.Error("WithField should return a new logger")
	}

	grandchild := child.WithFields(map[string]interface{}{"tickers": 2, "days": 6})
	if grandchild == child {
		t.Error("WithFields should return a new logger")
	}
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	// Must not panic or write anywhere.
	log.Info("discarded")
	log.WithError(nil).Warn("discarded")
}
