package postgres

import (
	"context"
	"encoding/json"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/postgres/generated"
	"github.com/iho/bookkeeper/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	pool Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// CreateTx records an audit log inside tx.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	before, err := marshalState(log.BeforeState)
	if err != nil {
		return err
	}
	after, err := marshalState(log.AfterState)
	if err != nil {
		return err
	}

	return queries(r.pool, tx).CreateAuditLog(ctx, generated.CreateAuditLogParams{
		ID:           log.ID,
		OwnerID:      log.OwnerID,
		Action:       string(log.Action),
		ResourceType: log.ResourceType,
		ResourceID:   log.ResourceID,
		RequestID:    log.RequestID,
		BeforeState:  before,
		AfterState:   after,
		Status:       string(log.Status),
		ErrorMessage: log.ErrorMessage,
		CreatedAt:    timeToPgTimestamptz(log.CreatedAt),
	})
}

// GetByResourceID lists the audit trail of one resource, oldest first.
func (r *AuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	rows, err := queries(r.pool, nil).ListAuditLogsByResource(ctx, generated.ListAuditLogsByResourceParams{
		ResourceType: resourceType,
		ResourceID:   resourceID,
	})
	if err != nil {
		return nil, err
	}

	logs := make([]*domain.AuditLog, 0, len(rows))
	for _, row := range rows {
		log := &domain.AuditLog{
			ID:           row.ID,
			OwnerID:      row.OwnerID,
			Action:       domain.AuditAction(row.Action),
			ResourceType: row.ResourceType,
			ResourceID:   row.ResourceID,
			RequestID:    row.RequestID,
			Status:       domain.AuditStatus(row.Status),
			ErrorMessage: row.ErrorMessage,
			CreatedAt:    row.CreatedAt.Time,
		}
		if err := unmarshalState(row.BeforeState, &log.BeforeState); err != nil {
			return nil, err
		}
		if err := unmarshalState(row.AfterState, &log.AfterState); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// marshalState stores a nil state as SQL NULL.
func marshalState(state domain.JSON) ([]byte, error) {
	if state == nil {
		return nil, nil
	}
	return json.Marshal(state)
}

func unmarshalState(raw []byte, dst *domain.JSON) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
