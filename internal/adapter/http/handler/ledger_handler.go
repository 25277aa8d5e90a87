package handler

import (
	"context"
	"net/http"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/internal/usecase"
)

// LedgerService runs the ledger-wide consistency checks.
type LedgerService interface {
	CheckConsistency(ctx context.Context, ownerID string) (*usecase.ConsistencyReport, error)
}

// ReconciliationService compares stored balances with recomputed ones.
type ReconciliationService interface {
	GenerateReconciliationReport(ctx context.Context, ownerID string) (*usecase.ReconciliationReport, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	ledgerUC LedgerService
	reconUC  ReconciliationService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService, reconUC ReconciliationService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, reconUC: reconUC}
}

// Consistency reports the double-entry identity and the accounting
// equation. An inconsistent ledger answers 409 with the same body.
func (h *LedgerHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledgerUC.CheckConsistency(r.Context(), "")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if !report.Consistent() {
		status = http.StatusConflict
	}
	writeJSON(w, status, dto.ConsistencyFromUseCase(report))
}

// Reconciliation recomputes every account balance of the caller.
func (h *LedgerHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconUC.GenerateReconciliationReport(r.Context(), "")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(report))
}
