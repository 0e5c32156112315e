package crontab

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/infrastructure/metrics"
)

type fakeReconciler struct {
	calls int
	err   error
}

func (f *fakeReconciler) Reconcile(context.Context) (conversation.ReconcileResult, error) {
	f.calls++
	return conversation.ReconcileResult{Conversations: 2}, f.err
}

func TestRunReconcilesOnStartAndStops(t *testing.T) {
	rec := &fakeReconciler{}
	c := NewCrontab(rec, "*/15 * * * *", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("crontab did not stop")
	}
	assert.Equal(t, 1, rec.calls)
}

func TestRunRejectsInvalidSchedule(t *testing.T) {
	rec := &fakeReconciler{err: errors.New("db down")}
	c := NewCrontab(rec, "not a cron", zerolog.Nop())

	err := c.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, rec.calls)
}

func TestReconcileOnceRecordsJobOutcome(t *testing.T) {
	okBefore := testutil.ToFloat64(metrics.BackgroundJobsTotal.WithLabelValues("reconcile", "success"))
	errBefore := testutil.ToFloat64(metrics.BackgroundJobsTotal.WithLabelValues("reconcile", "error"))

	NewCrontab(&fakeReconciler{}, "* * * * *", zerolog.Nop()).ReconcileOnce(context.Background())
	NewCrontab(&fakeReconciler{err: errors.New("db down")}, "* * * * *", zerolog.Nop()).ReconcileOnce(context.Background())

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.BackgroundJobsTotal.WithLabelValues("reconcile", "success")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(metrics.BackgroundJobsTotal.WithLabelValues("reconcile", "error")))
	assert.Zero(t, testutil.ToFloat64(metrics.BackgroundJobsActive.WithLabelValues("reconcile")))
}
