package crontab

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tieba-server/services/messaging-api/internal/infrastructure/metrics"
)

const tracerName = "tieba-server/services/messaging-api/crontab"

// runJob executes fn inside a span named after the job and records its outcome.
func runJob(ctx context.Context, job string, fn func(context.Context) error) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "crontab."+job,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("job.type", job)),
	)
	defer span.End()

	done := metrics.JobStarted(job)
	err := fn(ctx)
	done(err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
