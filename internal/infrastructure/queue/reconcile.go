package queue

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/coursehub/coursehub-api/internal/core/ports"
)

// Reconcile finds enrollment edges recorded on only one side and completes
// them through a sharded Dispatcher.
func Reconcile(ctx context.Context, svc ports.EnrollmentService, workers int, log zerolog.Logger) (ports.ReconcileReport, error) {
	d := NewDispatcher(workers, svc, log)
	d.Start(ctx)

	scanned, scanErr := svc.ScanHalfEdges(ctx, d.Enqueue)
	report := d.Close()
	report.Scanned = scanned

	log.Info().
		Int64("scanned", report.Scanned).
		Int64("repaired", report.Repaired).
		Int64("failed", report.Failed).
		Msg("reconcile finished")

	if scanErr != nil {
		return report, fmt.Errorf("reconcile: %w", scanErr)
	}
	return report, nil
}
