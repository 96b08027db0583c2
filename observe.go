package aetherfy

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aetherfy/aetherfy-vectors-go/internal/logger"
	"github.com/aetherfy/aetherfy-vectors-go/internal/metrics"
	"github.com/aetherfy/aetherfy-vectors-go/internal/version"
)

const instrumentationName = "github.com/aetherfy/aetherfy-vectors-go"

// observer provides logging, metrics and tracing for SDK operations.
type observer struct {
	logger  *zap.Logger
	metrics *metrics.Set
	tracer  trace.Tracer
}

func newObserver(l *zap.Logger, m *metrics.Set, tp trace.TracerProvider) *observer {
	if l == nil {
		l = zap.NewNop()
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &observer{
		logger:  l,
		metrics: m,
		tracer:  tp.Tracer(instrumentationName, trace.WithInstrumentationVersion(version.Version)),
	}
}

// start opens a span for op and returns a context carrying it and an
// operation-scoped logger. The returned func must be deferred with the
// address of the operation's named error.
func (o *observer) start(ctx context.Context, op, collection string) (context.Context, func(*error)) {
	begin := time.Now()
	attrs := []attribute.KeyValue{attribute.String("aetherfy.operation", op)}
	fields := []zap.Field{zap.String("op", op)}
	if collection != "" {
		attrs = append(attrs, attribute.String("aetherfy.collection", collection))
		fields = append(fields, zap.String("collection", collection))
	}

	ctx, span := o.tracer.Start(ctx, "aetherfy."+op, trace.WithAttributes(attrs...))
	log := o.logger.With(fields...)
	ctx = logger.ContextWithLogger(ctx, log)

	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		dur := time.Since(begin)
		o.metrics.ObserveOperation(op, dur.Seconds(), err != nil)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Warn("operation failed", zap.Duration("duration", dur), zap.Error(err))
		} else {
			log.Debug("operation completed", zap.Duration("duration", dur))
		}
		span.End()
	}
}
