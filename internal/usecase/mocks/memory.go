package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// ErrTxDone is returned when committing a finished transaction.
var ErrTxDone = errors.New("transaction already finished")

type entryHeader struct {
	domain.JournalEntry
}

type state struct {
	accounts  map[string]*domain.Account
	entries   map[string]*entryHeader
	movements map[string]*domain.Movement
	outbox    []*domain.OutboxEvent
	audit     []*domain.AuditLog
	numberSeq int
}

func (s *state) clone() *state {
	c := &state{
		accounts:  make(map[string]*domain.Account, len(s.accounts)),
		entries:   make(map[string]*entryHeader, len(s.entries)),
		movements: make(map[string]*domain.Movement, len(s.movements)),
		outbox:    append([]*domain.OutboxEvent(nil), s.outbox...),
		audit:     append([]*domain.AuditLog(nil), s.audit...),
		numberSeq: s.numberSeq,
	}
	for id, a := range s.accounts {
		c.accounts[id] = a.Clone()
	}
	for id, e := range s.entries {
		h := *e
		c.entries[id] = &h
	}
	for id, m := range s.movements {
		mv := *m
		c.movements[id] = &mv
	}
	return c
}

// Store is an in-memory transactional backend for the usecase ports.
// Transactions are serialized; rollback restores the snapshot taken at Begin.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *state

	// CommitErr, when set, makes the next commit fail and roll back.
	CommitErr error
	// Fail maps an operation name ("UpdateBalance", "SetApplied", ...) to an injected error.
	Fail map[string]error

	Commits   int
	Rollbacks int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		data: &state{
			accounts:  make(map[string]*domain.Account),
			entries:   make(map[string]*entryHeader),
			movements: make(map[string]*domain.Movement),
		},
		Fail: make(map[string]error),
	}
}

func (s *Store) fail(op string) error {
	if err, ok := s.Fail[op]; ok {
		return err
	}
	return nil
}

type memTx struct {
	store *Store
	snap  *state
	done  bool
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := s.fail("Begin"); err != nil {
		return nil, err
	}
	s.txMu.Lock()
	s.mu.RLock()
	snap := s.data.clone()
	s.mu.RUnlock()
	return &memTx{store: s, snap: snap}, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.store.txMu.Unlock()
	if err := t.store.CommitErr; err != nil {
		t.store.CommitErr = nil
		t.restore()
		return err
	}
	t.store.Commits++
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.store.txMu.Unlock()
	t.restore()
	return nil
}

func (t *memTx) restore() {
	t.store.mu.Lock()
	t.store.data = t.snap
	t.store.mu.Unlock()
	t.store.Rollbacks++
}

// Accounts returns the account repository view.
func (s *Store) Accounts() *AccountRepo { return &AccountRepo{s} }

// Entries returns the journal entry repository view.
func (s *Store) Entries() *EntryRepo { return &EntryRepo{s} }

// Movements returns the movement repository view.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s} }

// Ledger returns the ledger repository view.
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{s} }

// Outbox returns the outbox repository view.
func (s *Store) Outbox() *OutboxRepo { return &OutboxRepo{s} }

// Audit returns the audit repository view.
func (s *Store) Audit() *AuditRepo { return &AuditRepo{s} }

// PutAccount stores an account directly, bypassing use case validation.
func (s *Store) PutAccount(a *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.accounts[a.ID] = a.Clone()
}

// Account returns a copy of the stored account.
func (s *Store) Account(id string) *domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.data.accounts[id]; ok {
		return a.Clone()
	}
	return nil
}

// SetBalance overwrites a stored balance, simulating drift.
func (s *Store) SetBalance(id string, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.accounts[id].Balance = balance
}

// Events returns the outbox contents.
func (s *Store) Events() []*domain.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), s.data.outbox...)
}

// AuditLogs returns the audit trail.
func (s *Store) AuditLogs() []*domain.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.AuditLog(nil), s.data.audit...)
}

func (s *Store) loadEntry(id string) (*domain.JournalEntry, bool) {
	h, ok := s.data.entries[id]
	if !ok {
		return nil, false
	}
	e := h.JournalEntry
	e.Movements = nil
	for _, m := range s.data.movements {
		if m.EntryID == id {
			mv := *m
			e.Movements = append(e.Movements, &mv)
		}
	}
	sort.Slice(e.Movements, func(i, j int) bool { return e.Movements[i].Position < e.Movements[j].Position })
	return &e, true
}

// AccountRepo implements usecase.AccountRepository.
type AccountRepo struct{ s *Store }

func (r *AccountRepo) CreateTx(ctx context.Context, tx usecase.Transaction, a *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.accounts {
		if existing.Code == a.Code {
			return domain.ErrDuplicateCode
		}
	}
	r.s.data.accounts[a.ID] = a.Clone()
	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if a, ok := r.s.data.accounts[id]; ok {
		return a.Clone(), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *AccountRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.s.data.accounts[id]; ok {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (r *AccountRepo) GetByCode(ctx context.Context, code string) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.data.accounts {
		if a.Code == code {
			return a.Clone(), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *AccountRepo) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if err := r.s.fail("GetByIDsForUpdate"); err != nil {
		return nil, err
	}
	return r.GetByIDs(ctx, ids)
}

func (r *AccountRepo) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error {
	if err := r.s.fail("UpdateBalance"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Balance = balance
	a.Version = version
	a.UpdatedAt = updatedAt
	return nil
}

func (r *AccountRepo) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.IsActive = active
	a.UpdatedAt = updatedAt
	return nil
}

func (r *AccountRepo) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	for _, m := range r.s.data.movements {
		if m.AccountID == id {
			return domain.Errorf(domain.ErrReferentialIntegrity, "account %s is referenced by movements", id)
		}
	}
	delete(r.s.data.accounts, id)
	return nil
}

func (r *AccountRepo) ListChildren(ctx context.Context, parentID string) ([]*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Account
	for _, a := range r.s.data.accounts {
		if a.ParentID != nil && *a.ParentID == parentID {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *AccountRepo) CountChildren(ctx context.Context, tx usecase.Transaction, parentID string, activeOnly bool) (int, error) {
	children, _ := r.ListChildren(ctx, parentID)
	n := 0
	for _, c := range children {
		if !activeOnly || c.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *AccountRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Account
	for _, a := range r.s.data.accounts {
		if ownerID == "" || a.OwnerID == ownerID {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// EntryRepo implements usecase.JournalEntryRepository.
type EntryRepo struct{ s *Store }

func (r *EntryRepo) Create(ctx context.Context, tx usecase.Transaction, e *domain.JournalEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, h := range r.s.data.entries {
		if h.Number == e.Number {
			return domain.ErrDuplicateNumber
		}
	}
	h := &entryHeader{JournalEntry: *e}
	h.Movements = nil
	r.s.data.entries[e.ID] = h
	for _, m := range e.Movements {
		mv := *m
		r.s.data.movements[m.ID] = &mv
	}
	return nil
}

func (r *EntryRepo) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if e, ok := r.s.loadEntry(id); ok {
		return e, nil
	}
	return nil, domain.ErrEntryNotFound
}

func (r *EntryRepo) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	return r.GetByID(ctx, id)
}

func (r *EntryRepo) ExistsNumber(ctx context.Context, number string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, h := range r.s.data.entries {
		if h.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *EntryRepo) NextNumber(ctx context.Context, tx usecase.Transaction, year int) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.numberSeq++
	return fmt.Sprintf("JE-%d-%06d", year, r.s.data.numberSeq), nil
}

func (r *EntryRepo) UpdateHeader(ctx context.Context, tx usecase.Transaction, e *domain.JournalEntry) error {
	if err := r.s.fail("UpdateHeader"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h, ok := r.s.data.entries[e.ID]
	if !ok {
		return domain.ErrEntryNotFound
	}
	h.State = e.State
	h.Description = e.Description
	h.PostedAt = e.PostedAt
	h.VoidedAt = e.VoidedAt
	h.UpdatedAt = e.UpdatedAt
	return nil
}

func (r *EntryRepo) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.entries[id]; !ok {
		return domain.ErrEntryNotFound
	}
	delete(r.s.data.entries, id)
	for mid, m := range r.s.data.movements {
		if m.EntryID == id {
			delete(r.s.data.movements, mid)
		}
	}
	return nil
}

func (r *EntryRepo) List(ctx context.Context, f usecase.EntryFilter) ([]*domain.JournalEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.JournalEntry
	for id, h := range r.s.data.entries {
		if f.OwnerID != "" && h.OwnerID != f.OwnerID {
			continue
		}
		if f.State != "" && h.State != f.State {
			continue
		}
		if f.From != nil && h.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && h.Date.After(*f.To) {
			continue
		}
		e, _ := r.s.loadEntry(id)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return page(out, f.Limit, f.Offset), nil
}

// MovementRepo implements usecase.MovementRepository.
type MovementRepo struct{ s *Store }

func (r *MovementRepo) Create(ctx context.Context, tx usecase.Transaction, m *domain.Movement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.entries[m.EntryID]; !ok {
		return domain.ErrEntryNotFound
	}
	mv := *m
	r.s.data.movements[m.ID] = &mv
	return nil
}

func (r *MovementRepo) Update(ctx context.Context, tx usecase.Transaction, m *domain.Movement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.movements[m.ID]; !ok {
		return domain.ErrMovementNotFound
	}
	mv := *m
	r.s.data.movements[m.ID] = &mv
	return nil
}

func (r *MovementRepo) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.movements[id]; !ok {
		return domain.ErrMovementNotFound
	}
	delete(r.s.data.movements, id)
	return nil
}

func (r *MovementRepo) SetApplied(ctx context.Context, tx usecase.Transaction, id string, applied bool) error {
	if err := r.s.fail("SetApplied"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.data.movements[id]
	if !ok {
		return domain.ErrMovementNotFound
	}
	m.Applied = applied
	return nil
}

func (r *MovementRepo) CountByAccount(ctx context.Context, tx usecase.Transaction, accountID string, states ...domain.EntryState) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, m := range r.s.data.movements {
		if m.AccountID != accountID {
			continue
		}
		if len(states) == 0 {
			n++
			continue
		}
		for _, st := range states {
			if r.s.data.entries[m.EntryID].State == st {
				n++
				break
			}
		}
	}
	return n, nil
}

func (r *MovementRepo) SumPosted(ctx context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	debits, credits := decimal.Zero, decimal.Zero
	for _, m := range r.s.data.movements {
		if m.AccountID == accountID && r.s.data.entries[m.EntryID].State == domain.EntryStatePosted {
			debits = debits.Add(m.Debit)
			credits = credits.Add(m.Credit)
		}
	}
	return debits, credits, nil
}

func (r *MovementRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Movement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Movement
	for _, m := range r.s.data.movements {
		if m.AccountID == accountID {
			mv := *m
			out = append(out, &mv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

// LedgerRepo implements usecase.LedgerRepository.
type LedgerRepo struct{ s *Store }

func (r *LedgerRepo) PostedTotals(ctx context.Context, ownerID string) (decimal.Decimal, decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	debits, credits := decimal.Zero, decimal.Zero
	for _, m := range r.s.data.movements {
		e := r.s.data.entries[m.EntryID]
		if e.State == domain.EntryStatePosted && (ownerID == "" || e.OwnerID == ownerID) {
			debits = debits.Add(m.Debit)
			credits = credits.Add(m.Credit)
		}
	}
	return debits, credits, nil
}

func (r *LedgerRepo) BalancesByCategory(ctx context.Context, ownerID string) (map[domain.Category]decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var accounts []*domain.Account
	for _, a := range r.s.data.accounts {
		if ownerID == "" || a.OwnerID == ownerID {
			accounts = append(accounts, a)
		}
	}
	return domain.NewChart(accounts).TotalsByCategory(), nil
}

func (r *LedgerRepo) UnbalancedPostedEntries(ctx context.Context, ownerID string, tolerance decimal.Decimal) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []string
	for id, h := range r.s.data.entries {
		if h.State != domain.EntryStatePosted || (ownerID != "" && h.OwnerID != ownerID) {
			continue
		}
		e, _ := r.s.loadEntry(id)
		if !e.IsBalanced(tolerance) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// OutboxRepo implements usecase.OutboxRepository.
type OutboxRepo struct{ s *Store }

func (r *OutboxRepo) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.outbox = append(r.s.data.outbox, event)
	return nil
}

func (r *OutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range r.s.data.outbox {
		if !e.Published {
			out = append(out, e)
		}
	}
	return page(out, limit, 0), nil
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.data.outbox {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return fmt.Errorf("outbox event %s not found", id)
}

func (r *OutboxRepo) DeletePublished(ctx context.Context, before time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.data.outbox[:0]
	for _, e := range r.s.data.outbox {
		if !e.Published || e.PublishedAt.After(before) {
			kept = append(kept, e)
		}
	}
	r.s.data.outbox = kept
	return nil
}

// AuditRepo implements usecase.AuditRepository.
type AuditRepo struct{ s *Store }

func (r *AuditRepo) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.audit = append(r.s.data.audit, log)
	return nil
}

func (r *AuditRepo) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.AuditLog
	for _, l := range r.s.data.audit {
		if l.ResourceType == resourceType && l.ResourceID == resourceID {
			out = append(out, l)
		}
	}
	return out, nil
}

// SequentialIDs generates predictable, sortable IDs.
type SequentialIDs struct {
	mu sync.Mutex
	n  int
}

func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%05d", g.n)
}

// FixedClock returns a fixed time, advanced manually.
type FixedClock struct {
	mu sync.Mutex
	T  time.Time
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.T
}

// Advance moves the clock forward.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.T = c.T.Add(d)
}
