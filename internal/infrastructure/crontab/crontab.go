package crontab

import (
	"context"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/infrastructure/metrics"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

const CronJobTimeout = 5 * time.Minute

// Reconciler repairs denormalized conversation counters.
type Reconciler interface {
	Reconcile(ctx context.Context) (conversation.ReconcileResult, error)
}

// Crontab schedules background maintenance of the messaging tables.
type Crontab struct {
	ctab       *crontab.Crontab
	reconciler Reconciler
	expr       string
	log        zerolog.Logger
}

func NewCrontab(reconciler Reconciler, expr string, log zerolog.Logger) *Crontab {
	return &Crontab{
		ctab:       crontab.New(),
		reconciler: reconciler,
		expr:       expr,
		log:        log.With().Str("component", "crontab").Logger(),
	}
}

// Run executes one pass at start, schedules the rest, and blocks until ctx ends.
func (c *Crontab) Run(ctx context.Context) error {
	c.ReconcileOnce(ctx)

	if err := c.ctab.AddJob(c.expr, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
		defer cancel()
		c.ReconcileOnce(jobCtx)
	}); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add reconcile job")
	}
	c.log.Info().Str("schedule", c.expr).Msg("counter reconciliation scheduled")

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

// ReconcileOnce runs a single reconciliation pass and logs the outcome.
func (c *Crontab) ReconcileOnce(ctx context.Context) {
	_ = runJob(ctx, "reconcile", func(ctx context.Context) error {
		started := time.Now()
		result, err := c.reconciler.Reconcile(ctx)
		if err != nil {
			c.log.Error().Err(err).Msg("counter reconciliation failed")
			return err
		}
		metrics.RecordReconcile(result.Conversations, result.Participants, time.Since(started))

		event := c.log.Debug()
		if result.Conversations > 0 || result.Participants > 0 {
			event = c.log.Warn()
		}
		event.Int64("conversations", result.Conversations).
			Int64("participants", result.Participants).
			Dur("took", time.Since(started)).
			Msg("counter reconciliation finished")
		return nil
	})
}
