package logging

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestSetMirror_ReceivesRecords(t *testing.T) {
	var gotLevel Level
	var gotMsg string
	var gotArgs []any

	SetMirror(func(_ context.Context, level Level, msg string, args ...any) {
		gotLevel = level
		gotMsg = msg
		gotArgs = args
	})
	defer SetMirror(nil)

	logger := NewNop()
	logger.InfoContext(context.Background(), "settlement run finished", "gameweek", 10)

	if gotLevel != zapcore.InfoLevel {
		t.Fatalf("unexpected mirrored level: %s", gotLevel)
	}
	if gotMsg != "settlement run finished" {
		t.Fatalf("unexpected mirrored message: %q", gotMsg)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "gameweek" || gotArgs[1] != 10 {
		t.Fatalf("unexpected mirrored args: %+v", gotArgs)
	}
}

func TestSetMirror_NilRemovesMirror(t *testing.T) {
	called := false
	SetMirror(func(context.Context, Level, string, ...any) {
		called = true
	})
	SetMirror(nil)

	NewNop().Info("should not be mirrored")

	if called {
		t.Fatalf("expected mirror to be removed")
	}
}
