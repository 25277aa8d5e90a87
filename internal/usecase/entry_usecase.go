package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/metrics"
)

// EntryUseCase drives the journal entry lifecycle: drafting, posting,
// voiding and duplication.
type EntryUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	entryRepo    JournalEntryRepository
	movementRepo MovementRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	idGen        IDGenerator
	clock        Clock
	retrier      Retrier
	tolerance    decimal.Decimal
	scale        int32
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo JournalEntryRepository,
	movementRepo MovementRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
) *EntryUseCase {
	return &EntryUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		entryRepo:    entryRepo,
		movementRepo: movementRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		clock:        SystemClock(),
		retrier:      noRetry{},
		tolerance:    domain.DefaultBalanceTolerance,
		scale:        domain.DefaultAmountScale,
		logger:       zerolog.Nop(),
	}
}

// WithTolerance sets the balance tolerance used by CanPost.
func (uc *EntryUseCase) WithTolerance(tolerance decimal.Decimal) *EntryUseCase {
	if tolerance.IsPositive() {
		uc.tolerance = tolerance
	}
	return uc
}

// WithAmountScale sets the number of decimal places accepted on amounts.
func (uc *EntryUseCase) WithAmountScale(places int32) *EntryUseCase {
	if places >= 0 {
		uc.scale = places
	}
	return uc
}

// WithRetrier retries post and void on serialization failures.
func (uc *EntryUseCase) WithRetrier(r Retrier) *EntryUseCase {
	uc.retrier = r
	return uc
}

// WithAudit records lifecycle transitions in the audit trail.
func (uc *EntryUseCase) WithAudit(repo AuditRepository) *EntryUseCase {
	uc.auditRepo = repo
	return uc
}

// WithMetrics enables Prometheus counters.
func (uc *EntryUseCase) WithMetrics(m *metrics.Metrics) *EntryUseCase {
	uc.metrics = m
	return uc
}

// WithLogger sets the logger.
func (uc *EntryUseCase) WithLogger(l zerolog.Logger) *EntryUseCase {
	uc.logger = l
	return uc
}

// WithClock overrides the wall clock.
func (uc *EntryUseCase) WithClock(c Clock) *EntryUseCase {
	uc.clock = c
	return uc
}

// Tolerance returns the configured balance tolerance.
func (uc *EntryUseCase) Tolerance() decimal.Decimal {
	return uc.tolerance
}

// MovementInput describes one debit or credit line.
type MovementInput struct {
	AccountID   string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// CreateEntryInput represents input for drafting a journal entry.
type CreateEntryInput struct {
	OwnerID     string
	Number      string
	Date        time.Time
	Description string
	Reference   string
	Movements   []MovementInput
}

// CreateEntry stores a new draft entry with its initial lines.
func (uc *EntryUseCase) CreateEntry(ctx context.Context, input CreateEntryInput) (*domain.JournalEntry, error) {
	ownerID := ownerOf(ctx, input.OwnerID)
	if ownerID == "" {
		return nil, domain.Errorf(domain.ErrValidation, "owner is required")
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	number := strings.TrimSpace(input.Number)
	if number != "" {
		if err := domain.ValidateEntryNumber(number); err != nil {
			return nil, err
		}
		exists, err := uc.entryRepo.ExistsNumber(ctx, number)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateNumber, number)
		}
	}

	now := uc.clock.Now()
	date := input.Date
	if date.IsZero() {
		date = now
	}

	entry := &domain.JournalEntry{
		ID:          uc.idGen.Generate(),
		Number:      number,
		Date:        date,
		Description: input.Description,
		Reference:   input.Reference,
		State:       domain.EntryStateDraft,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	accounts, err := uc.loadAccounts(ctx, input.Movements)
	if err != nil {
		return nil, err
	}
	for _, mi := range input.Movements {
		m, err := uc.buildMovement(mi, accounts[mi.AccountID], ownerID)
		if err != nil {
			return nil, err
		}
		if err := entry.AddMovement(m); err != nil {
			return nil, err
		}
	}

	autoNumber := entry.Number == ""
	for attempt := 1; ; attempt++ {
		err = uc.insertEntry(ctx, entry, autoNumber)
		if err == nil || !autoNumber || !errors.Is(err, domain.ErrDuplicateNumber) || attempt == maxNumberAttempts {
			break
		}
		uc.logger.Debug().Str("number", entry.Number).Int("attempt", attempt).Msg("entry number taken, retrying")
	}
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesCreated.Inc()
	}

	return entry, nil
}

func (uc *EntryUseCase) insertEntry(ctx context.Context, entry *domain.JournalEntry, autoNumber bool) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if autoNumber {
		if entry.Number, err = uc.nextFreeNumber(txCtx, tx, entry.Date.Year()); err != nil {
			return err
		}
	}

	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(txCtx)
}

// nextFreeNumber skips sequence values already taken by hand-entered numbers.
func (uc *EntryUseCase) nextFreeNumber(ctx context.Context, tx Transaction, year int) (string, error) {
	for i := 0; i < maxNumberAttempts; i++ {
		number, err := uc.entryRepo.NextNumber(ctx, tx, year)
		if err != nil {
			return "", err
		}
		taken, err := uc.entryRepo.ExistsNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
	}
	return "", fmt.Errorf("%w: no free number for %d", domain.ErrDuplicateNumber, year)
}

func (uc *EntryUseCase) loadAccounts(ctx context.Context, lines []MovementInput) (domain.AccountSet, error) {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.AccountID)
	}
	accounts, err := uc.accountRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return domain.NewAccountSet(accounts), nil
}

func (uc *EntryUseCase) buildMovement(in MovementInput, account *domain.Account, ownerID string) (*domain.Movement, error) {
	if account == nil || account.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: account %s not found", domain.ErrInvalidMovement, in.AccountID)
	}
	m := &domain.Movement{
		ID:          uc.idGen.Generate(),
		AccountID:   in.AccountID,
		Debit:       in.Debit,
		Credit:      in.Credit,
		Description: in.Description,
	}
	if err := m.Validate(account); err != nil {
		return nil, err
	}
	if err := m.ValidateScale(uc.scale); err != nil {
		return nil, err
	}
	return m, nil
}

// GetEntry retrieves an entry with its movements.
func (uc *EntryUseCase) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	entry, err := uc.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(ctx, entry.OwnerID) {
		return nil, domain.ErrEntryNotFound
	}
	return entry, nil
}

// ListEntries lists entries matching filter.
func (uc *EntryUseCase) ListEntries(ctx context.Context, filter EntryFilter) ([]*domain.JournalEntry, error) {
	filter.OwnerID = ownerOf(ctx, filter.OwnerID)
	filter.Limit, filter.Offset, _ = domain.ValidatePagination(filter.Limit, filter.Offset)
	if filter.State != "" && !filter.State.IsValid() {
		return nil, domain.Errorf(domain.ErrValidation, "unknown entry state %q", filter.State)
	}
	return uc.entryRepo.List(ctx, filter)
}

// EntryCheck reports the validity of an entry for posting and voiding.
type EntryCheck struct {
	Entry        *domain.JournalEntry
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
	Difference   decimal.Decimal
	Balanced     bool
	PostError    error
	VoidError    error
}

// CanPost reports whether the entry may be posted.
func (c *EntryCheck) CanPost() bool { return c.PostError == nil }

// CanVoid reports whether the entry may be voided.
func (c *EntryCheck) CanVoid() bool { return c.VoidError == nil }

// CheckEntry evaluates totals and lifecycle preconditions without changing anything.
func (uc *EntryUseCase) CheckEntry(ctx context.Context, id string) (*EntryCheck, error) {
	entry, err := uc.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	return &EntryCheck{
		Entry:        entry,
		TotalDebits:  entry.TotalDebits(),
		TotalCredits: entry.TotalCredits(),
		Difference:   entry.Difference(),
		Balanced:     entry.IsBalanced(uc.tolerance),
		PostError:    entry.CanPost(uc.tolerance),
		VoidError:    entry.CanVoid(),
	}, nil
}

// draftTx runs fn against a locked draft entry inside a transaction.
func (uc *EntryUseCase) draftTx(ctx context.Context, id string, fn func(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error) (*domain.JournalEntry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := uc.entryRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(ctx, entry.OwnerID) {
		return nil, domain.ErrEntryNotFound
	}
	if entry.State != domain.EntryStateDraft {
		return nil, fmt.Errorf("%w: entry %s is %s", domain.ErrEntryNotDraft, entry.Number, entry.State)
	}

	if err := fn(txCtx, tx, entry); err != nil {
		return nil, err
	}

	entry.UpdatedAt = uc.clock.Now()
	if err := uc.entryRepo.UpdateHeader(txCtx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}
	return entry, nil
}

// AddMovement appends a line to a draft entry.
func (uc *EntryUseCase) AddMovement(ctx context.Context, entryID string, input MovementInput) (*domain.JournalEntry, error) {
	return uc.draftTx(ctx, entryID, func(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error {
		account, err := uc.lookupAccount(ctx, input.AccountID)
		if err != nil {
			return err
		}
		m, err := uc.buildMovement(input, account, entry.OwnerID)
		if err != nil {
			return err
		}
		if err := entry.AddMovement(m); err != nil {
			return err
		}
		return uc.movementRepo.Create(ctx, tx, m)
	})
}

// UpdateMovement replaces a line of a draft entry.
func (uc *EntryUseCase) UpdateMovement(ctx context.Context, entryID, movementID string, input MovementInput) (*domain.JournalEntry, error) {
	return uc.draftTx(ctx, entryID, func(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error {
		m, ok := entry.Movement(movementID)
		if !ok {
			return domain.ErrMovementNotFound
		}
		account, err := uc.lookupAccount(ctx, input.AccountID)
		if err != nil {
			return err
		}
		updated, err := uc.buildMovement(input, account, entry.OwnerID)
		if err != nil {
			return err
		}
		m.AccountID = updated.AccountID
		m.Debit = updated.Debit
		m.Credit = updated.Credit
		m.Description = updated.Description
		return uc.movementRepo.Update(ctx, tx, m)
	})
}

// RemoveMovement deletes a line from a draft entry.
func (uc *EntryUseCase) RemoveMovement(ctx context.Context, entryID, movementID string) (*domain.JournalEntry, error) {
	return uc.draftTx(ctx, entryID, func(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error {
		m, ok := entry.Movement(movementID)
		if !ok {
			return domain.ErrMovementNotFound
		}
		from := m.Position
		if err := entry.RemoveMovement(movementID); err != nil {
			return err
		}
		if err := uc.movementRepo.Delete(ctx, tx, movementID); err != nil {
			return err
		}
		for _, rest := range entry.Movements[from:] {
			if err := uc.movementRepo.Update(ctx, tx, rest); err != nil {
				return err
			}
		}
		return nil
	})
}

func (uc *EntryUseCase) lookupAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return account, err
}

// PostEntry validates the entry and applies all its movements atomically.
func (uc *EntryUseCase) PostEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	start := time.Now()

	var entry *domain.JournalEntry
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		entry, err = uc.transition(ctx, id, transitionPost, "")
		return err
	})
	uc.observe("post", start, err)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesPosted.Inc()
		uc.metrics.PostedAmount.Observe(entry.TotalDebits().InexactFloat64())
	}
	uc.logger.Info().
		Str("entry_id", entry.ID).
		Str("number", entry.Number).
		Str("total", entry.TotalDebits().String()).
		Int("movements", len(entry.Movements)).
		Msg("journal entry posted")

	return entry, nil
}

// VoidEntry reverts all movements of a posted entry atomically.
func (uc *EntryUseCase) VoidEntry(ctx context.Context, id, reason string) (*domain.JournalEntry, error) {
	start := time.Now()

	var entry *domain.JournalEntry
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		entry, err = uc.transition(ctx, id, transitionVoid, reason)
		return err
	})
	uc.observe("void", start, err)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesVoided.Inc()
	}
	uc.logger.Info().
		Str("entry_id", entry.ID).
		Str("number", entry.Number).
		Str("reason", reason).
		Msg("journal entry voided")

	return entry, nil
}

type transitionKind int

const (
	transitionPost transitionKind = iota
	transitionVoid
)

func (uc *EntryUseCase) transition(ctx context.Context, id string, kind transitionKind, reason string) (*domain.JournalEntry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// 1. Lock the entry
	entry, err := uc.entryRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(ctx, entry.OwnerID) {
		return nil, domain.ErrEntryNotFound
	}

	switch kind {
	case transitionPost:
		err = entry.CanPost(uc.tolerance)
	case transitionVoid:
		err = entry.CanVoid()
	}
	if err != nil {
		return nil, err
	}

	// 2. Lock accounts in sorted order (deadlock prevention)
	ids := entry.AccountIDs()
	sort.Strings(ids)
	accounts, err := uc.accountRepo.GetByIDsForUpdate(txCtx, tx, ids)
	if err != nil {
		return nil, err
	}
	if len(accounts) != len(ids) {
		return nil, domain.ErrAccountNotFound
	}
	set := domain.NewAccountSet(accounts)

	// 3. Apply in memory; the domain rehearses before mutating
	before := domain.EntrySnapshot(entry)
	now := uc.clock.Now()

	var (
		eventType string
		action    domain.AuditAction
		applied   bool
	)
	switch kind {
	case transitionPost:
		err = entry.Post(set, uc.tolerance, now)
		eventType, action, applied = domain.EventTypeEntryPosted, domain.AuditActionEntryPost, true
	case transitionVoid:
		err = entry.Void(set, reason, now)
		eventType, action, applied = domain.EventTypeEntryVoided, domain.AuditActionEntryVoid, false
	}
	if err != nil {
		return nil, err
	}

	// 4. Persist balances, movement flags and header
	for _, accountID := range ids {
		a := set[accountID]
		if err := uc.accountRepo.UpdateBalance(txCtx, tx, a.ID, a.Balance, a.Version, now); err != nil {
			return nil, err
		}
	}
	for _, m := range entry.Movements {
		if err := uc.movementRepo.SetApplied(txCtx, tx, m.ID, applied); err != nil {
			return nil, err
		}
	}
	if err := uc.entryRepo.UpdateHeader(txCtx, tx, entry); err != nil {
		return nil, err
	}

	// 5. Outbox and audit inside the same transaction
	if err := uc.outboxRepo.Create(txCtx, tx, domain.NewEntryEvent(uc.idGen.Generate(), eventType, entry, now)); err != nil {
		return nil, err
	}
	if err := uc.audit(txCtx, tx, action, entry.ID, before, domain.EntrySnapshot(entry)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		direction := "apply"
		if !applied {
			direction = "revert"
		}
		for _, m := range entry.Movements {
			uc.metrics.MovementsApplied.WithLabelValues(string(set[m.AccountID].Category), string(m.Kind()), direction).Inc()
		}
	}

	return entry, nil
}

// DuplicateEntry copies an entry into a new draft with a derived number.
func (uc *EntryUseCase) DuplicateEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	start := time.Now()
	dup, err := uc.duplicate(ctx, id)
	uc.observe("duplicate", start, err)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesDuplicated.Inc()
	}
	return dup, nil
}

func (uc *EntryUseCase) duplicate(ctx context.Context, id string) (*domain.JournalEntry, error) {
	original, err := uc.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	number, err := uc.freeCopyNumber(ctx, original.Number)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	dup := original.Duplicate(number, uc.idGen.Generate, now)
	if err := uc.validateLines(ctx, dup.Movements); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.entryRepo.Create(txCtx, tx, dup); err != nil {
		return nil, err
	}

	event := domain.NewEntryEvent(uc.idGen.Generate(), domain.EventTypeEntryDuplicated, dup, now)
	event.Payload["source_entry_id"] = original.ID
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.audit(txCtx, tx, domain.AuditActionEntryDuplicate, dup.ID, domain.EntrySnapshot(original), domain.EntrySnapshot(dup)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}
	return dup, nil
}

// validateLines checks copied lines against the current state of their accounts.
func (uc *EntryUseCase) validateLines(ctx context.Context, lines []*domain.Movement) error {
	ids := make([]string, 0, len(lines))
	for _, m := range lines {
		ids = append(ids, m.AccountID)
	}
	accounts, err := uc.accountRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	set := domain.NewAccountSet(accounts)
	for _, m := range lines {
		if err := m.Validate(set[m.AccountID]); err != nil {
			return err
		}
	}
	return nil
}

func (uc *EntryUseCase) freeCopyNumber(ctx context.Context, original string) (string, error) {
	for n := 1; n <= maxCopyAttempts; n++ {
		candidate := domain.CopyNumber(original, n)
		exists, err := uc.entryRepo.ExistsNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free copy number for %s", domain.ErrDuplicateNumber, original)
}

// DeleteEntry removes a draft entry and its movements. Posted and void
// entries keep their history.
func (uc *EntryUseCase) DeleteEntry(ctx context.Context, id string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := uc.entryRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return err
	}
	if !visibleTo(ctx, entry.OwnerID) {
		return domain.ErrEntryNotFound
	}
	if entry.State != domain.EntryStateDraft {
		return domain.Errorf(domain.ErrReferentialIntegrity, "entry %s is %s; only drafts can be deleted", entry.Number, entry.State)
	}

	if err := uc.entryRepo.Delete(txCtx, tx, id); err != nil {
		return err
	}
	if err := uc.audit(txCtx, tx, domain.AuditActionEntryDelete, id, domain.EntrySnapshot(entry), nil); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

func (uc *EntryUseCase) observe(op string, start time.Time, err error) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.LifecycleDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		uc.metrics.LedgerErrors.WithLabelValues(op, string(domain.CodeOf(err))).Inc()
	}
}

func (uc *EntryUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, id string, before, after domain.JSON) error {
	if uc.auditRepo == nil {
		return nil
	}
	log := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		OwnerID:      actorOf(ctx),
		Action:       action,
		ResourceType: domain.AggregateTypeEntry,
		ResourceID:   id,
		RequestID:    requestIDOf(ctx),
		BeforeState:  before,
		AfterState:   after,
		Status:       domain.AuditStatusSuccess,
		CreatedAt:    uc.clock.Now(),
	}
	if err := uc.auditRepo.CreateTx(ctx, tx, log); err != nil {
		return err
	}
	if uc.metrics != nil {
		uc.metrics.AuditLogsCreated.WithLabelValues(string(action), string(log.Status)).Inc()
	}
	return nil
}
