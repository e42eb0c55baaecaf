package zaplogger

import (
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Logger adapts zap to the observability.Logger port.
type Logger struct{ l *zap.Logger }

var _ observability.Logger = (*Logger)(nil)

// New wraps l, binding fixed once. A nil l discards everything.
func New(l *zap.Logger, fixed ...observability.Field) *Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &Logger{l: l.With(fields(fixed)...)}
}

func (z *Logger) With(fs ...observability.Field) observability.Logger {
	if len(fs) == 0 {
		return z
	}
	return &Logger{l: z.l.With(fields(fs)...)}
}

func (z *Logger) Debug(msg string, fs ...observability.Field) { z.l.Debug(msg, fields(fs)...) }
func (z *Logger) Info(msg string, fs ...observability.Field)  { z.l.Info(msg, fields(fs)...) }
func (z *Logger) Warn(msg string, fs ...observability.Field)  { z.l.Warn(msg, fields(fs)...) }
func (z *Logger) Error(msg string, fs ...observability.Field) { z.l.Error(msg, fields(fs)...) }

// Zap exposes the underlying logger for code that needs zap directly.
func (z *Logger) Zap() *zap.Logger { return z.l }

func (z *Logger) Sync() error { return z.l.Sync() }

// fields maps values to typed zap fields. Money is logged as its exact decimal string.
func fields(fs []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fs))
	for _, f := range fs {
		switch v := f.Value.(type) {
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		case decimal.Decimal:
			out = append(out, zap.String(f.Key, v.String()))
		case decimal.NullDecimal:
			if v.Valid {
				out = append(out, zap.String(f.Key, v.Decimal.String()))
			} else {
				out = append(out, zap.Skip())
			}
		case time.Duration:
			out = append(out, zap.Duration(f.Key, v))
		case time.Time:
			out = append(out, zap.Time(f.Key, v))
		case fmt.Stringer:
			out = append(out, zap.Stringer(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}
