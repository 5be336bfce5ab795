package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"local", "dev", "prod"} {
		if _, err := NewLogger(env, ""); err != nil {
			t.Errorf("NewLogger(%q): %v", env, err)
		}
	}

	if _, err := NewLogger("staging", ""); err == nil {
		t.Error("expected error for unknown environment")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "debug")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if !l.Core().Enabled(zap.DebugLevel) {
		t.Error("debug override not applied")
	}

	if _, err := NewLogger("prod", "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestFromContext(t *testing.T) {
	base := zap.NewNop()
	ctx := ContextWithLogger(context.Background(), base)
	if FromContext(ctx) != base {
		t.Error("stored logger not returned")
	}
	if FromContext(context.Background()) == nil {
		t.Error("missing logger should yield a no-op logger, not nil")
	}
}
