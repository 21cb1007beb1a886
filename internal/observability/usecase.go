package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const spanPrefix = "UC."

// Run tracks one use case execution: a span, RED metrics and a single
// "use_case_done" log line written by End.
type Run struct {
	useCase string
	start   time.Time
	span    trace.Span
	log     Logger
	req     Counter
	dur     Histogram

	outcome string
	status  string
	fields  []Field
}

// BeginUseCase starts the span for useCase and returns the derived context.
// Callers must defer End.
func BeginUseCase(ctx context.Context, tel Observability, log Logger, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	tel = OrNop(tel)
	if log == nil {
		log = tel.Logger()
	}
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := tel.Tracer().Start(ctx, spanPrefix+spanName, attrs...)

	return ctx, &Run{
		useCase: useCase,
		start:   time.Now(),
		span:    span,
		log:     log.With(F("use_case", useCase)),
		req:     tel.Metrics().Counter(MUsecaseRequests),
		dur:     tel.Metrics().Histogram(MUsecaseDuration),
		outcome: "success",
		status:  "OK",
	}
}

// Fail marks the run as failed with a machine-readable status.
func (r *Run) Fail(status string) {
	r.outcome, r.status = "error", status
}

// Status overrides the status text without changing the outcome.
func (r *Run) Status(status string) {
	r.status = status
}

// With adds fields to the final log line.
func (r *Run) With(fields ...Field) {
	r.fields = append(r.fields, fields...)
}

func (r *Run) Span() trace.Span { return r.span }

func (r *Run) Logger() Logger { return r.log }

func (r *Run) End(ctx context.Context, err error) {
	if err != nil && r.outcome != "error" {
		r.outcome = "error"
		if r.status == "OK" {
			r.status = "FAILED"
		}
	}
	lat := time.Since(r.start).Seconds()

	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, r.status)
		} else {
			r.span.SetStatus(codes.Ok, r.status)
		}
		r.span.End()
	}

	r.req.Add(1, L("use_case", r.useCase), L("outcome", r.outcome))
	r.dur.Observe(lat, L("use_case", r.useCase))

	fields := append([]Field{
		F("outcome", r.outcome),
		F("status", r.status),
		F("latency_seconds", lat),
	}, r.fields...)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			F("trace_id", sc.TraceID().String()),
			F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, F("error", err.Error()))
	}
	r.log.Info("use_case_done", fields...)
}

// ObserveExternal records one call to an external peer.
func ObserveExternal(tel Observability, peer, endpoint string, start time.Time, err error) {
	tel = OrNop(tel)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	tel.Metrics().Counter(MExternalRequests).Add(1, L("peer", peer), L("endpoint", endpoint), L("outcome", outcome))
	tel.Metrics().Histogram(MExternalRequestDuration).Observe(time.Since(start).Seconds(), L("peer", peer), L("endpoint", endpoint))
}
