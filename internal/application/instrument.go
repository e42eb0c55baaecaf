package application

import (
	"context"
	"errors"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	spanPrefix     = "UC."
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond
)

// Instrument carries the tracer, base logger and RED instruments a service's use cases share.
type Instrument struct {
	tracer observability.Tracer
	log    observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

// NewInstrument binds the service name onto the base logger. A nil tel yields silent instruments.
func NewInstrument(service string, tel observability.Observability) Instrument {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return Instrument{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

// Logger returns the service logger.
func (in Instrument) Logger() observability.Logger { return in.log }

// Run tracks a single use case execution from Begin to End.
type Run struct {
	in      Instrument
	ctx     context.Context
	span    trace.Span
	logger  observability.Logger
	useCase string
	start   time.Time
	outcome string
	status  string
	fields  []observability.Field
}

// Begin starts a span named UC.<spanName> and a logger scoped to the use case.
// The returned context carries both.
func (in Instrument) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase))
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, spanPrefix+spanName, attrs...)
	ctx = logctx.With(ctx, logger)
	return ctx, &Run{
		in:      in,
		ctx:     ctx,
		span:    span,
		logger:  logger,
		useCase: useCase,
		start:   time.Now(),
		outcome: "success",
		status:  "OK",
	}
}

func (r *Run) Span() trace.Span             { return r.span }
func (r *Run) Logger() observability.Logger { return r.logger }

// Fail marks the run as failed with a machine-readable status code.
func (r *Run) Fail(status string) {
	r.outcome, r.status = "error", status
}

// Status overrides the status code without changing the outcome.
func (r *Run) Status(status string) {
	r.status = status
}

// Note adds fields to the closing use_case_done line.
func (r *Run) Note(fields ...observability.Field) {
	r.fields = append(r.fields, fields...)
}

// Guard fails the run with CONTEXT_CANCELED when ctx is done.
func (r *Run) Guard(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		r.Fail("CONTEXT_CANCELED")
		return err
	}
	return nil
}

// End closes the span, records RED metrics and writes use_case_done.
func (r *Run) End(err error) {
	lat := time.Since(r.start).Seconds()
	if err != nil && r.outcome != "error" {
		r.Fail("ERROR")
	}

	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, r.status)
		} else {
			r.span.SetStatus(codes.Ok, r.status)
		}
		r.span.End()
	}

	r.in.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.outcome),
	)
	r.in.durHistogram.Observe(lat, observability.L("use_case", r.useCase))

	fields := []observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", lat),
	}
	if sc := trace.SpanContextFromContext(r.ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	fields = append(fields, r.fields...)
	if err != nil {
		fields = append(fields, observability.Err(err))
	}
	r.logger.Info("use_case_done", fields...)
}

// Publish hands e to publisher with a short deadline and records it as an external call.
// Failures are returned for the caller to log; they never undo committed work.
func (in Instrument) Publish(ctx context.Context, publisher domoutbox.Publisher, e domoutbox.Event) error {
	if publisher == nil || e == nil {
		return nil
	}
	endpoint := e.EventName()
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	start := time.Now()
	outcome := "success"
	err := publisher.Publish(pubCtx, e)
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded), err == nil && pubCtx.Err() != nil:
		outcome = "canceled"
		if err == nil {
			err = pubCtx.Err()
		}
	case err != nil:
		outcome = "error"
	}

	in.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	in.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
	)
	return err
}
