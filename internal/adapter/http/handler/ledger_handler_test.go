package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
)

func TestLedgerHandler_ConsistencyAndReconciliation(t *testing.T) {
	api := newTestAPI(t)
	c := api.seedChart()

	var entry dto.EntryResponse
	api.expect(api.do(http.MethodPost, "/entries", map[string]any{"movements": lines(c.cash, c.capital, "700", "700")}), http.StatusCreated, &entry)
	api.expect(api.do(http.MethodPost, "/entries/"+entry.ID+"/post", nil), http.StatusOK, nil)

	var consistency dto.ConsistencyResponse
	api.expect(api.do(http.MethodGet, "/ledger/consistency", nil), http.StatusOK, &consistency)
	if !consistency.Consistent || !consistency.TotalDebits.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("unexpected consistency %+v", consistency)
	}
	if consistency.OwnerID != apiOwner {
		t.Fatalf("expected report scoped to %s, got %q", apiOwner, consistency.OwnerID)
	}

	var recon dto.ReconciliationResponse
	api.expect(api.do(http.MethodGet, "/ledger/reconciliation", nil), http.StatusOK, &recon)
	if !recon.Healthy || recon.TotalAccounts != 5 {
		t.Fatalf("unexpected reconciliation %+v", recon)
	}

	api.store.SetBalance(c.cash, decimal.NewFromInt(710))

	api.expect(api.do(http.MethodGet, "/ledger/reconciliation", nil), http.StatusOK, &recon)
	if recon.Healthy || len(recon.Discrepancies) != 1 {
		t.Fatalf("expected one discrepancy, got %+v", recon)
	}
	if d := recon.Discrepancies[0]; d.AccountID != c.cash || !d.Difference.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected discrepancy %+v", d)
	}

	api.expect(api.do(http.MethodGet, "/ledger/consistency", nil), http.StatusConflict, &consistency)
	if consistency.EquationHolds {
		t.Fatal("expected drifted balance to break the accounting equation")
	}
}

func TestHealthHandler(t *testing.T) {
	healthy := NewHealthHandler(map[string]Pinger{
		"postgres": PingFunc(func(ctx context.Context) error { return nil }),
		"redis":    nil,
	})

	rr := httptest.NewRecorder()
	healthy.Readiness(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	healthy.Liveness(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	down := NewHealthHandler(map[string]Pinger{
		"postgres": PingFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
	})
	rr = httptest.NewRecorder()
	down.Readiness(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
