package observability

import (
	"context"
	"errors"
	"testing"
)

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx := context.Background()
	ctx2, span := tracer.StartSpan(ctx, "test")
	if ctx2 != ctx {
		t.Fatalf("nop tracer should return same context")
	}
	span.SetTag("key", "value")
	span.SetError(nil)
	span.Finish()
}

func TestFieldConstructors(t *testing.T) {
	f := String("name", "value")
	if f.Key() != "name" || f.Value() != "value" {
		t.Errorf("String field: %s=%v", f.Key(), f.Value())
	}
	if f := Int("count", 3); f.Value() != 3 {
		t.Errorf("Int field: %v", f.Value())
	}
	if f := Int64("ms", int64(9)); f.Value() != int64(9) {
		t.Errorf("Int64 field: %v", f.Value())
	}
	err := errors.New("boom")
	if f := Error("error", err); f.Value() != err {
		t.Errorf("Error field: %v", f.Value())
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	var log Logger = NopLogger{}
	log = log.With(String("session", "abc"))
	log.Debug("d")
	log.Info("i", Int("n", 1))
	log.Warn("w")
	log.Error("e", Error("error", errors.New("x")))
}
