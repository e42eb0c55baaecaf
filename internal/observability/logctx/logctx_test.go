package logctx

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/stretchr/testify/assert"
)

func TestFromOr(t *testing.T) {
	fallback := observability.NopLogger()
	assert.Equal(t, fallback, FromOr(context.Background(), fallback))

	scoped := observability.NopLogger().With(observability.F("request_id", "r-1"))
	ctx := With(context.Background(), scoped)
	assert.Equal(t, scoped, From(ctx))
	assert.Equal(t, scoped, FromOr(ctx, fallback))
}

func TestWithNilLoggerKeepsContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, With(ctx, nil))
	assert.Nil(t, From(ctx))
}

type fieldLogger struct {
	observability.Logger
	fields []observability.Field
}

func (l fieldLogger) With(fs ...observability.Field) observability.Logger {
	return fieldLogger{Logger: l.Logger, fields: append(append([]observability.Field{}, l.fields...), fs...)}
}

func TestEnrichAddsFieldsToScopedLogger(t *testing.T) {
	ctx := With(context.Background(), fieldLogger{Logger: observability.NopLogger()})
	ctx = Enrich(ctx, observability.F("user_id", "alice"))
	ctx = Enrich(ctx, observability.F("role", "USER"))

	got, ok := From(ctx).(fieldLogger)
	assert.True(t, ok)
	assert.Equal(t, []observability.Field{observability.F("user_id", "alice"), observability.F("role", "USER")}, got.fields)

	bare := context.Background()
	assert.Equal(t, bare, Enrich(bare, observability.F("user_id", "alice")))
}
