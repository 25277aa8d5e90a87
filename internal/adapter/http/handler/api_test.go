package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
	"github.com/iho/bookkeeper/internal/usecase/mocks"
)

const apiOwner = "owner-1"

// testAPI mounts the handlers over the in-memory store.
type testAPI struct {
	t      *testing.T
	store  *mocks.Store
	router chi.Router
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := mocks.NewStore()
	ids := &mocks.SequentialIDs{}
	clock := &mocks.FixedClock{T: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)}

	accounts := usecase.NewAccountUseCase(store, store.Accounts(), store.Movements(), store.Outbox(), ids).WithClock(clock)
	entries := usecase.NewEntryUseCase(store, store.Accounts(), store.Entries(), store.Movements(), store.Outbox(), ids).WithClock(clock)
	ledger := usecase.NewLedgerUseCase(store.Ledger(), domain.DefaultBalanceTolerance)
	recon := usecase.NewReconciliationUseCase(store.Accounts(), store.Movements(), ledger)

	ah := NewAccountHandler(accounts)
	eh := NewEntryHandler(entries)
	lh := NewLedgerHandler(ledger, recon)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := domain.Principal{OwnerID: apiOwner, Role: domain.RoleAdmin}
			next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), p)))
		})
	})
	r.Post("/accounts", ah.Create)
	r.Get("/accounts", ah.List)
	r.Get("/accounts/{id}", ah.Get)
	r.Get("/accounts/{id}/path", ah.Path)
	r.Get("/accounts/{id}/children", ah.Children)
	r.Get("/accounts/{id}/balance", ah.Balance)
	r.Post("/accounts/{id}/deactivate", ah.Deactivate)
	r.Delete("/accounts/{id}", ah.Delete)
	r.Get("/accounts/{id}/movements", ah.Movements)
	r.Post("/entries", eh.Create)
	r.Get("/entries", eh.List)
	r.Get("/entries/{id}", eh.Get)
	r.Get("/entries/{id}/check", eh.Check)
	r.Post("/entries/{id}/movements", eh.AddMovement)
	r.Put("/entries/{id}/movements/{movementID}", eh.UpdateMovement)
	r.Delete("/entries/{id}/movements/{movementID}", eh.RemoveMovement)
	r.Post("/entries/{id}/post", eh.Post)
	r.Post("/entries/{id}/void", eh.Void)
	r.Post("/entries/{id}/duplicate", eh.Duplicate)
	r.Delete("/entries/{id}", eh.Delete)
	r.Get("/ledger/consistency", lh.Consistency)
	r.Get("/ledger/reconciliation", lh.Reconciliation)

	return &testAPI{t: t, store: store, router: r}
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// expect asserts the status and decodes the body into out when non-nil.
func (a *testAPI) expect(rec *httptest.ResponseRecorder, status int, out any) {
	a.t.Helper()
	if rec.Code != status {
		a.t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			a.t.Fatalf("decode response: %v", err)
		}
	}
}

// account creates an account and returns its ID.
func (a *testAPI) account(code, name, category, subtype, parent string, detail bool) string {
	a.t.Helper()
	body := map[string]any{
		"code":      code,
		"name":      name,
		"category":  category,
		"is_detail": detail,
	}
	if subtype != "" {
		body["subtype"] = subtype
	}
	if parent != "" {
		body["parent_id"] = parent
	}
	var resp struct {
		ID string `json:"id"`
	}
	a.expect(a.do(http.MethodPost, "/accounts", body), http.StatusCreated, &resp)
	return resp.ID
}

type chart struct {
	assets, current, cash, equity, capital string
}

func (a *testAPI) seedChart() chart {
	var c chart
	c.assets = a.account("1", "Assets", "ASSET", "", "", false)
	c.current = a.account("1.1", "Current Assets", "ASSET", "CURRENT", c.assets, false)
	c.cash = a.account("1.1.01", "Cash", "ASSET", "CURRENT", c.current, true)
	c.equity = a.account("3", "Equity", "EQUITY", "", "", false)
	c.capital = a.account("3.1", "Capital", "EQUITY", "", c.equity, true)
	return c
}

func lines(debitAccount, creditAccount, debit, credit string) []map[string]any {
	return []map[string]any{
		{"account_id": debitAccount, "debit": debit},
		{"account_id": creditAccount, "credit": credit},
	}
}
