package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracer opens internal spans tagged with service.name.
type Tracer struct {
	t       trace.Tracer
	service attribute.KeyValue
}

var _ observability.Tracer = (*Tracer)(nil)

// New binds to tp, or to the global provider when tp is nil. Until an SDK provider is
// installed with otel.SetTracerProvider the global one records nothing.
func New(service string, tp trace.TracerProvider) *Tracer {
	if service == "" {
		service = "minishop"
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{
		t:       tp.Tracer("minishop.usecase"),
		service: attribute.String("service.name", service),
	}
}

func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+1)
	all = append(all, t.service)
	all = append(all, attrs...)
	return t.t.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal), trace.WithAttributes(all...))
}
