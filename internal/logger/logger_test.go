package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, f := range []string{"", "none", "json", "prod", "console", "dev"} {
		l, err := NewLogger(f)
		if err != nil {
			t.Errorf("NewLogger(%q): unexpected error: %v", f, err)
			continue
		}
		if l == nil {
			t.Errorf("NewLogger(%q) returned nil", f)
		}
	}
	if _, err := NewLogger("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("json", "warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled")
	}

	if _, err := NewLogger("json", "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	fallbackCore, fallbackLogs := observer.New(zapcore.DebugLevel)
	fallback := zap.New(fallbackCore)

	FromContext(context.Background(), fallback).Info("to fallback")
	if fallbackLogs.Len() != 1 {
		t.Errorf("fallback logs = %d, want 1", fallbackLogs.Len())
	}

	ctx := ContextWithLogger(context.Background(), zap.New(core))
	FromContext(ctx, fallback).Info("to context")
	if logs.Len() != 1 {
		t.Errorf("context logs = %d, want 1", logs.Len())
	}

	if FromContext(context.Background(), nil) == nil {
		t.Error("FromContext with nil fallback must not return nil")
	}
}
