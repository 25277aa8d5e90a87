package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/metrics"
)

// AccountUseCase handles chart of accounts business logic.
type AccountUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	movementRepo MovementRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	idGen        IDGenerator
	clock        Clock
	cache        Cache
	cacheTTL     time.Duration
	metrics      *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	movementRepo MovementRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		movementRepo: movementRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		clock:        SystemClock(),
		cacheTTL:     DefaultPathCacheTTL,
	}
}

// WithCache memoises hierarchy paths.
func (uc *AccountUseCase) WithCache(cache Cache, ttl time.Duration) *AccountUseCase {
	uc.cache = cache
	if ttl > 0 {
		uc.cacheTTL = ttl
	}
	return uc
}

// WithAudit records chart changes in the audit trail.
func (uc *AccountUseCase) WithAudit(repo AuditRepository) *AccountUseCase {
	uc.auditRepo = repo
	return uc
}

// WithMetrics enables Prometheus counters.
func (uc *AccountUseCase) WithMetrics(m *metrics.Metrics) *AccountUseCase {
	uc.metrics = m
	return uc
}

// WithClock overrides the wall clock.
func (uc *AccountUseCase) WithClock(c Clock) *AccountUseCase {
	uc.clock = c
	return uc
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	OwnerID     string
	Code        string
	Name        string
	Description string
	ParentID    *string
	Category    domain.Category
	Subtype     domain.Subtype
	IsDetail    bool
}

// CreateAccount validates and stores a new account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	input.Code = strings.TrimSpace(input.Code)
	input.Name = strings.TrimSpace(input.Name)

	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateAccountCode(input.Code, input.Category, input.Subtype); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	account := &domain.Account{
		ID:          uc.idGen.Generate(),
		Code:        input.Code,
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Subtype:     input.Subtype,
		Balance:     decimal.Zero,
		IsDetail:    input.IsDetail,
		IsActive:    true,
		OwnerID:     ownerOf(ctx, input.OwnerID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if account.OwnerID == "" {
		return nil, domain.Errorf(domain.ErrValidation, "owner is required")
	}

	var parent *domain.Account
	if input.ParentID != nil && *input.ParentID != "" {
		p, err := uc.accountRepo.GetByID(ctx, *input.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: parent %s not found", domain.ErrInvalidParent, *input.ParentID)
			}
			return nil, err
		}
		parent = p
	}
	if err := account.AttachTo(parent); err != nil {
		return nil, err
	}
	if err := domain.ValidateChildCode(account.Code, parent); err != nil {
		return nil, err
	}

	if _, err := uc.accountRepo.GetByCode(ctx, account.Code); err == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateCode, account.Code)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.accountRepo.CreateTx(txCtx, tx, account); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(txCtx, tx, domain.NewAccountCreatedEvent(uc.idGen.Generate(), account, now)); err != nil {
		return nil, err
	}

	if err := uc.audit(txCtx, tx, domain.AuditActionAccountCreate, account.ID, nil, domain.MarshalState(account)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
		uc.metrics.AccountOperations.WithLabelValues("create").Inc()
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(ctx, account.OwnerID) {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	OwnerID string
	Limit   int
	Offset  int
}

// ListAccounts lists an owner's accounts ordered by code.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.ListByOwner(ctx, ownerOf(ctx, input.OwnerID), limit, offset)
}

func pathCacheKey(id string) string {
	return "account:path:" + id
}

// HierarchyPath returns the account's ancestor names joined root to leaf.
func (uc *AccountUseCase) HierarchyPath(ctx context.Context, id string) (string, error) {
	account, err := uc.GetAccount(ctx, id)
	if err != nil {
		return "", err
	}

	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, pathCacheKey(id)); err == nil && cached != nil {
			uc.countCache("hit")
			return string(cached), nil
		}
		uc.countCache("miss")
	}

	chain, err := domain.AncestorChain(account, func(parentID string) (*domain.Account, error) {
		parent, err := uc.accountRepo.GetByID(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("load parent %s: %w", parentID, err)
		}
		return parent, nil
	})
	if err != nil {
		return "", err
	}
	path := domain.JoinPath(chain)

	if uc.cache != nil {
		_ = uc.cache.Set(ctx, pathCacheKey(id), []byte(path), uc.cacheTTL)
	}
	return path, nil
}

func (uc *AccountUseCase) countCache(result string) {
	if uc.metrics != nil {
		uc.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

// Descendants returns the direct children, or the whole subtree breadth-first
// when recursive is set.
func (uc *AccountUseCase) Descendants(ctx context.Context, id string, recursive bool) ([]*domain.Account, error) {
	if _, err := uc.GetAccount(ctx, id); err != nil {
		return nil, err
	}

	return domain.Subtree(id, recursive, func(parentID string) ([]*domain.Account, error) {
		return uc.accountRepo.ListChildren(ctx, parentID)
	})
}

// ComputeBalance recomputes the balance from movements of posted entries.
func (uc *AccountUseCase) ComputeBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	account, err := uc.GetAccount(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	debits, credits, err := uc.movementRepo.SumPosted(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.BalanceFromTotals(account.Category, debits, credits), nil
}

// RollupBalance returns a detail balance, or the sum of detail balances
// beneath a grouping account.
func (uc *AccountUseCase) RollupBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	account, err := uc.GetAccount(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	if account.IsDetail {
		return account.Balance, nil
	}

	subtree, err := uc.Descendants(ctx, id, true)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.NewChart(append(subtree, account)).Rollup(id)
}

// CanDeleteAccount returns nil when the account has no movements and no children.
func (uc *AccountUseCase) CanDeleteAccount(ctx context.Context, id string) error {
	account, err := uc.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	return uc.checkDeletable(ctx, nil, account)
}

func (uc *AccountUseCase) checkDeletable(ctx context.Context, tx Transaction, account *domain.Account) error {
	children, err := uc.accountRepo.CountChildren(ctx, tx, account.ID, false)
	if err != nil {
		return err
	}
	if children > 0 {
		return domain.Errorf(domain.ErrReferentialIntegrity, "account %s has %d child accounts", account.Code, children)
	}

	movements, err := uc.movementRepo.CountByAccount(ctx, tx, account.ID)
	if err != nil {
		return err
	}
	if movements > 0 {
		return domain.Errorf(domain.ErrReferentialIntegrity, "account %s is referenced by %d movements; deactivate it instead", account.Code, movements)
	}
	return nil
}

// DeleteAccount removes an account that was never used.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, id string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return err
	}
	if !visibleTo(ctx, account.OwnerID) {
		return domain.ErrAccountNotFound
	}

	if err := uc.checkDeletable(txCtx, tx, account); err != nil {
		return err
	}

	if err := uc.accountRepo.Delete(txCtx, tx, id); err != nil {
		return err
	}

	if err := uc.audit(txCtx, tx, domain.AuditActionAccountDelete, id, domain.MarshalState(account), nil); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, pathCacheKey(id))
	}
	if uc.metrics != nil {
		uc.metrics.AccountOperations.WithLabelValues("delete").Inc()
	}
	return nil
}

// DeactivateAccount stops an account from accepting movements. It is refused
// while active children exist or draft entries still reference the account.
func (uc *AccountUseCase) DeactivateAccount(ctx context.Context, id string) (*domain.Account, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(ctx, account.OwnerID) {
		return nil, domain.ErrAccountNotFound
	}
	if !account.IsActive {
		return account, nil
	}

	active, err := uc.accountRepo.CountChildren(txCtx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, domain.Errorf(domain.ErrReferentialIntegrity, "account %s has %d active child accounts", account.Code, active)
	}

	pending, err := uc.movementRepo.CountByAccount(txCtx, tx, id, domain.EntryStateDraft)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, domain.Errorf(domain.ErrReferentialIntegrity, "account %s is referenced by %d movements of draft entries", account.Code, pending)
	}

	before := domain.MarshalState(account)
	now := uc.clock.Now()
	if err := uc.accountRepo.SetActive(txCtx, tx, id, false, now); err != nil {
		return nil, err
	}
	account.IsActive = false
	account.UpdatedAt = now

	if err := uc.audit(txCtx, tx, domain.AuditActionAccountDeactivate, id, before, domain.MarshalState(account)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountOperations.WithLabelValues("deactivate").Inc()
	}
	return account, nil
}

// ListMovements lists the movement lines booked against an account.
func (uc *AccountUseCase) ListMovements(ctx context.Context, id string, limit, offset int) ([]*domain.Movement, error) {
	if _, err := uc.GetAccount(ctx, id); err != nil {
		return nil, err
	}
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.movementRepo.ListByAccount(ctx, id, limit, offset)
}

func (uc *AccountUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, id string, before, after domain.JSON) error {
	if uc.auditRepo == nil {
		return nil
	}
	log := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		OwnerID:      actorOf(ctx),
		Action:       action,
		ResourceType: domain.AggregateTypeAccount,
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
