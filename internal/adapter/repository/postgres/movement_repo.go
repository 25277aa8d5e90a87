package postgres

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/postgres/generated"
	"github.com/iho/bookkeeper/internal/usecase"
)

// MovementRepository implements usecase.MovementRepository.
type MovementRepository struct {
	pool Pool
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(pool Pool) *MovementRepository {
	return &MovementRepository{pool: pool}
}

// Create inserts a movement line.
func (r *MovementRepository) Create(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	err := queries(r.pool, tx).CreateMovement(ctx, movementParams(movement))
	return translate(err, nil)
}

// Update rewrites account, amounts, description and position of a line.
func (r *MovementRepository) Update(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	n, err := queries(r.pool, tx).UpdateMovement(ctx, generated.UpdateMovementParams{
		ID:          movement.ID,
		AccountID:   movement.AccountID,
		Debit:       decimalToNumeric(movement.Debit),
		Credit:      decimalToNumeric(movement.Credit),
		Description: movement.Description,
		Position:    int32(movement.Position),
	})
	if err != nil {
		return translate(err, nil)
	}
	if n == 0 {
		return domain.ErrMovementNotFound
	}
	return nil
}

// Delete removes a movement line.
func (r *MovementRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	n, err := queries(r.pool, tx).DeleteMovement(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrMovementNotFound
	}
	return nil
}

// SetApplied records whether the line currently counts in its account balance.
func (r *MovementRepository) SetApplied(ctx context.Context, tx usecase.Transaction, id string, applied bool) error {
	n, err := queries(r.pool, tx).SetMovementApplied(ctx, generated.SetMovementAppliedParams{
		ID:      id,
		Applied: applied,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrMovementNotFound
	}
	return nil
}

// CountByAccount counts movements on accountID whose entry is in one of states.
func (r *MovementRepository) CountByAccount(ctx context.Context, tx usecase.Transaction, accountID string, states ...domain.EntryState) (int, error) {
	names := make([]string, 0, len(states))
	for _, s := range states {
		names = append(names, string(s))
	}
	n, err := queries(r.pool, tx).CountMovementsByAccount(ctx, generated.CountMovementsByAccountParams{
		AccountID: accountID,
		States:    names,
	})
	return int(n), err
}

// SumPosted aggregates debits and credits over posted entries.
func (r *MovementRepository) SumPosted(ctx context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	row, err := queries(r.pool, nil).SumPostedMovements(ctx, accountID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return numericToDecimal(row.Debits), numericToDecimal(row.Credits), nil
}

// ListByAccount lists the account's movements, newest entries first.
func (r *MovementRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Movement, error) {
	rows, err := queries(r.pool, nil).ListMovementsByAccount(ctx, generated.ListMovementsByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}
	return rowsToMovements(rows), nil
}

func movementParams(m *domain.Movement) generated.CreateMovementParams {
	return generated.CreateMovementParams{
		ID:          m.ID,
		EntryID:     m.EntryID,
		AccountID:   m.AccountID,
		Debit:       decimalToNumeric(m.Debit),
		Credit:      decimalToNumeric(m.Credit),
		Description: m.Description,
		Applied:     m.Applied,
		Position:    int32(m.Position),
	}
}

func rowsToMovements(rows []generated.Movement) []*domain.Movement {
	movements := make([]*domain.Movement, 0, len(rows))
	for _, row := range rows {
		movements = append(movements, &domain.Movement{
			ID:          row.ID,
			EntryID:     row.EntryID,
			AccountID:   row.AccountID,
			Debit:       numericToDecimal(row.Debit),
			Credit:      numericToDecimal(row.Credit),
			Description: row.Description,
			Applied:     row.Applied,
			Position:    int(row.Position),
		})
	}
	return movements
}
