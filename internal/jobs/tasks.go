package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/usecase"
)

const (
	// QueueDefault is the queue every bookkeeper task runs on.
	QueueDefault = "default"
	// TaskTypeReconcile recomputes balances and runs the ledger checks.
	TaskTypeReconcile = "ledger:reconcile"
)

// ReconcilePayload selects the owner to reconcile. Empty means every owner.
type ReconcilePayload struct {
	OwnerID string `json:"owner_id"`
}

// NewReconcileTask constructs an asynq task for a reconciliation run.
func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReconcile, data, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}

// Reconciler is the part of the reconciliation use case the worker needs.
type Reconciler interface {
	GenerateReconciliationReport(ctx context.Context, ownerID string) (*usecase.ReconciliationReport, error)
}

// ReconcileHandler runs reconciliation tasks.
type ReconcileHandler struct {
	reconciler Reconciler
	logger     zerolog.Logger
}

// NewReconcileHandler creates a handler for TaskTypeReconcile.
func NewReconcileHandler(reconciler Reconciler, logger zerolog.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		reconciler: reconciler,
		logger:     logger.With().Str("job", TaskTypeReconcile).Logger(),
	}
}

// ProcessTask implements asynq.Handler. A malformed payload is not retried.
func (h *ReconcileHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error().Err(err).Msg("malformed reconcile payload")
		return fmt.Errorf("decode reconcile payload: %v: %w", err, asynq.SkipRetry)
	}

	report, err := h.reconciler.GenerateReconciliationReport(ctx, payload.OwnerID)
	if err != nil {
		h.logger.Error().Err(err).Str("owner_id", payload.OwnerID).Msg("reconciliation failed")
		return err
	}

	if !report.Healthy() {
		h.logger.Warn().
			Str("owner_id", payload.OwnerID).
			Int("discrepancies", len(report.Discrepancies)).
			Bool("ledger_consistent", report.LedgerConsistent()).
			Msg("ledger needs attention")
	}
	return nil
}
