// Package worker runs the backup pipeline: queue consumption plus a
// periodic scan for rows the queue missed.
package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"cashtrack/internal/amqp"
)

var backupRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cashtrack_backup_runs_total",
	Help: "Backup processing runs, labeled by trigger and outcome",
}, []string{"trigger", "outcome"})

// Consumer delivers backup messages until the context is cancelled.
type Consumer interface {
	ConsumeBackups(ctx context.Context, handler func(context.Context, *amqp.BackupMessage) error) error
}

// Processor does the actual copying to the journal.
type Processor interface {
	HandleBackupMessage(ctx context.Context, msg *amqp.BackupMessage) error
	ProcessPending(ctx context.Context) error
}

// BackupWorker couples a queue consumer with a periodic pending scan.
// The scan is the safety net: it catches rows whose publish was lost and
// rows re-queued by edits.
type BackupWorker struct {
	consumer  Consumer
	processor Processor
	interval  time.Duration
}

func NewBackupWorker(consumer Consumer, processor Processor, interval time.Duration) *BackupWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &BackupWorker{
		consumer:  consumer,
		processor: processor,
		interval:  interval,
	}
}

// Run blocks until the context is cancelled or the consumer fails.
// An initial pending scan runs before the loop so a restart drains
// whatever accumulated while the worker was down.
func (w *BackupWorker) Run(ctx context.Context) error {
	if err := w.processor.ProcessPending(ctx); err != nil {
		backupRunsTotal.WithLabelValues("startup", "error").Inc()
		slog.ErrorContext(ctx, "Startup backup scan failed", "error", err)
	} else {
		backupRunsTotal.WithLabelValues("startup", "ok").Inc()
	}

	g, ctx := errgroup.WithContext(ctx)

	if w.consumer != nil {
		g.Go(func() error {
			err := w.consumer.ConsumeBackups(ctx, w.handleMessage)
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := w.processor.ProcessPending(ctx); err != nil {
					backupRunsTotal.WithLabelValues("periodic", "error").Inc()
					slog.ErrorContext(ctx, "Periodic backup scan failed", "error", err)
				} else {
					backupRunsTotal.WithLabelValues("periodic", "ok").Inc()
				}
			}
		}
	})

	return g.Wait()
}

func (w *BackupWorker) handleMessage(ctx context.Context, msg *amqp.BackupMessage) error {
	if err := w.processor.HandleBackupMessage(ctx, msg); err != nil {
		backupRunsTotal.WithLabelValues("message", "error").Inc()
		return err
	}
	backupRunsTotal.WithLabelValues("message", "ok").Inc()
	return nil
}
