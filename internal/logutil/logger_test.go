package logutil

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestGetLoggerBeforeInit(t *testing.T) {
	if GetLogger() == nil {
		t.Fatal("GetLogger returned nil before InitLogger")
	}
}

func TestInitLoggerLevel(t *testing.T) {
	InitLogger("not-a-level")
	l := GetLogger()
	if l == nil {
		t.Fatal("GetLogger returned nil")
	}
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Debug should be disabled when the level falls back to info")
	}
}
