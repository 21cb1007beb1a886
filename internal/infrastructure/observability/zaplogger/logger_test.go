package zaplogger

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldsReachZap(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := New(zap.New(core), observability.F("service", "checkout"))

	l.With(observability.F("order_id", "o1")).Info("use_case_done",
		observability.F("outcome", "success"),
		observability.F("error", errors.New("boom")),
	)
	l.Debug("dropped")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["service"] != "checkout" || ctx["order_id"] != "o1" || ctx["outcome"] != "success" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
	if ctx["error"] != "boom" {
		t.Fatalf("error field = %v", ctx["error"])
	}
}
