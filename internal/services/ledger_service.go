package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendwise/internal/core"
	"spendwise/internal/storage"
)

var (
	ErrDuplicateCategory = errors.New("category already exists")
	ErrProtectedCategory = errors.New("the fallback category cannot be deleted")
	ErrLastCategory      = errors.New("at least one category must remain")
)

// syncPublisher is the slice of the AMQP client the service needs. A nil
// publisher disables the mirror entirely.
type syncPublisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
	PublishTransactionDelete(ctx context.Context, id int64) error
}

// LedgerService is the single command surface over the ledger: it owns the
// load → validate → mutate → persist cycle and enforces the category and
// goal invariants. All reads hand out snapshots; the aggregation functions
// in core never see storage.
type LedgerService struct {
	storage   *storage.SQLiteRepository
	publisher syncPublisher
	now       func() time.Time
}

func NewLedgerService(storage *storage.SQLiteRepository, publisher syncPublisher) *LedgerService {
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
		now:       time.Now,
	}
}

// --- reads ---

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx)
}

func (s *LedgerService) RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	return s.storage.RecentTransactions(ctx, limit)
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]string, error) {
	return s.storage.ListCategories(ctx)
}

func (s *LedgerService) ListGoals(ctx context.Context) ([]core.Goal, error) {
	return s.storage.ListGoals(ctx)
}

// Balance computes the current signed balance from the full ledger.
func (s *LedgerService) Balance(ctx context.Context) (core.Money, error) {
	txs, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return core.Money{}, err
	}
	return core.ComputeTotals(txs).Balance, nil
}

// --- transactions ---

// AddTransaction validates and persists one transaction, then queues it for
// the backup mirror. No state is written when validation fails.
func (s *LedgerService) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Description = strings.TrimSpace(tx.Description)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	id, err := s.storage.AppendTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	tx.ID = id

	s.publishSync(ctx, id)
	return tx, nil
}

// DeleteTransaction removes a transaction. A stale id is a silent no-op:
// under single-user operation the UI cannot hold a reference that matters.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	deleted, err := s.storage.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if !deleted {
		slog.WarnContext(ctx, "Delete of missing transaction ignored", "id", id)
		return nil
	}
	s.publishDelete(ctx, id)
	return nil
}

// --- categories ---

func (s *LedgerService) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyCategory
	}

	exists, err := s.storage.CategoryExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if exists {
		return ErrDuplicateCategory
	}
	return s.storage.AddCategory(ctx, name)
}

// DeleteCategory removes a category and reassigns its transactions to the
// fallback bucket. The fallback itself and the last remaining category are
// protected; deleting a name that is already gone is a no-op.
func (s *LedgerService) DeleteCategory(ctx context.Context, name string) error {
	count, err := s.storage.CountCategories(ctx)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count <= 1 {
		return ErrLastCategory
	}
	if name == core.FallbackCategory {
		return ErrProtectedCategory
	}

	exists, err := s.storage.CategoryExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !exists {
		slog.WarnContext(ctx, "Delete of missing category ignored", "name", name)
		return nil
	}

	if _, err := s.storage.DeleteCategoryReassigning(ctx, name); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// --- goals ---

// AddGoal creates a savings goal. The deadline must still be ahead at
// creation time; it may legitimately slip into the past later.
func (s *LedgerService) AddGoal(ctx context.Context, name string, target, initial core.Money, targetDate core.Date) (core.Goal, error) {
	if initial.Cents < 0 {
		return core.Goal{}, core.ErrNegativeProgress
	}

	g := core.Goal{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(name),
		TargetAmount:  target,
		TargetDate:    targetDate,
		CurrentAmount: initial,
		CreatedAt:     s.now().UTC(),
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	if !g.TargetDate.After(s.now()) {
		return core.Goal{}, core.ErrPastTargetDate
	}

	if err := s.storage.AddGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	return g, nil
}

// GoalUpdate carries the optional edits for a goal; nil fields are left
// untouched.
type GoalUpdate struct {
	Name         *string
	TargetAmount *core.Money
	TargetDate   *core.Date
}

// EditGoal applies an update to an existing goal. Editing a missing goal
// is a silent no-op and returns nil.
func (s *LedgerService) EditGoal(ctx context.Context, id string, update GoalUpdate) (*core.Goal, error) {
	g, err := s.storage.GetGoal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}
	if g == nil {
		slog.WarnContext(ctx, "Edit of missing goal ignored", "id", id)
		return nil, nil
	}

	if update.Name != nil {
		g.Name = strings.TrimSpace(*update.Name)
	}
	if update.TargetAmount != nil {
		g.TargetAmount = *update.TargetAmount
	}
	if update.TargetDate != nil {
		if !update.TargetDate.After(s.now()) {
			return nil, core.ErrPastTargetDate
		}
		g.TargetDate = *update.TargetDate
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.storage.UpdateGoal(ctx, *g); err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return g, nil
}

// DeleteGoal removes a goal; a stale id is a silent no-op.
func (s *LedgerService) DeleteGoal(ctx context.Context, id string) error {
	deleted, err := s.storage.DeleteGoal(ctx, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if !deleted {
		slog.WarnContext(ctx, "Delete of missing goal ignored", "id", id)
	}
	return nil
}

// ContributeToGoal moves amount from the general balance into a goal.
// The goal update and the linked Savings transaction are persisted as one
// atomic unit; both land or neither does. A missing goal is a silent no-op
// returning (nil, nil, nil).
func (s *LedgerService) ContributeToGoal(ctx context.Context, id string, amount core.Money) (*core.Goal, *core.Transaction, error) {
	g, err := s.storage.GetGoal(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load goal: %w", err)
	}
	if g == nil {
		slog.WarnContext(ctx, "Contribution to missing goal ignored", "id", id)
		return nil, nil, nil
	}

	balance, err := s.Balance(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("compute balance: %w", err)
	}

	updated, linked, err := g.Contribute(amount, balance, s.now())
	if err != nil {
		return nil, nil, err
	}

	txID, err := s.storage.ContributeToGoal(ctx, updated, linked)
	if err != nil {
		return nil, nil, fmt.Errorf("persist contribution: %w", err)
	}
	linked.ID = txID

	s.publishSync(ctx, txID)
	return &updated, &linked, nil
}

// --- mirror publication (best effort; local writes never fail on a down broker) ---

func (s *LedgerService) publishSync(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

func (s *LedgerService) publishDelete(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
	}
}
