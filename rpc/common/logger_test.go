package common

import (
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logger.LogLevel
	}{
		{"debug", logger.DEBUG},
		{"INFO", logger.INFO},
		{"warn", logger.WARNING},
		{"warning", logger.WARNING},
		{"error", logger.ERROR},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("Expected an error for an unknown level")
	}
}

func TestToZapLevel(t *testing.T) {
	tests := []struct {
		in   logger.LogLevel
		want zapcore.Level
	}{
		{logger.DEBUG, zap.DebugLevel},
		{logger.INFO, zap.InfoLevel},
		{logger.WARNING, zap.WarnLevel},
		{logger.ERROR, zap.ErrorLevel},
		{logger.CRITICAL, zap.DPanicLevel},
	}
	for _, tt := range tests {
		if got := toZapLevel(tt.in); got != tt.want {
			t.Errorf("toZapLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitLoggers(t *testing.T) {
	if err := InitLoggers("warn"); err != nil {
		t.Fatalf("InitLoggers failed: %v", err)
	}
	if err := InitLoggers("nope"); err == nil {
		t.Error("Expected an error for an invalid level")
	}
}
