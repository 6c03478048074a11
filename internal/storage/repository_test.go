package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "spendwise.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrationsSeedCategories(t *testing.T) {
	repo := newTestRepo(t)

	cats, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.DefaultCategories, cats)
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.AppendTransaction(ctx, core.Transaction{
		Description: "salary",
		Amount:      core.Money{Cents: 100000},
		Category:    "Income",
		Date:        core.NewDate(2025, 6, 1),
	})
	require.NoError(t, err)
	require.Positive(t, id)

	id2, err := repo.AppendTransaction(ctx, core.Transaction{
		Description: "groceries",
		Amount:      core.Money{Cents: -2500},
		Category:    "Food",
		Date:        core.NewDate(2025, 6, 2),
	})
	require.NoError(t, err)
	assert.Greater(t, id2, id, "ids must be monotonic")

	txs, err := repo.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "salary", txs[0].Description)
	assert.Equal(t, int64(-2500), txs[1].Amount.Cents)
	assert.Equal(t, "2025-06-02", txs[1].Date.String())

	got, err := repo.GetTransaction(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "salary", got.Description)

	deleted, err := repo.DeleteTransaction(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Deleting again is a no-op, not an error.
	deleted, err = repo.DeleteTransaction(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)

	gone, err := repo.GetTransaction(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRecentTransactionsOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, d := range []core.Date{
		core.NewDate(2025, 6, 3),
		core.NewDate(2025, 6, 1),
		core.NewDate(2025, 6, 5),
	} {
		_, err := repo.AppendTransaction(ctx, core.Transaction{
			Description: "t " + d.String(),
			Amount:      core.Money{Cents: -100},
			Category:    "Food",
			Date:        d,
		})
		require.NoError(t, err)
	}

	recent, err := repo.RecentTransactions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2025-06-05", recent[0].Date.String())
	assert.Equal(t, "2025-06-03", recent[1].Date.String())
}

func TestAddAndDeleteCategory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.AddCategory(ctx, "Travel"))

	cats, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Travel", cats[len(cats)-1], "new categories append at the end")

	exists, err := repo.CategoryExists(ctx, "Travel")
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := repo.CountCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(core.DefaultCategories)+1, n)
}

func TestDeleteCategoryReassignsTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.AppendTransaction(ctx, core.Transaction{
			Description: "lunch",
			Amount:      core.Money{Cents: -1000},
			Category:    "Food",
			Date:        core.NewDate(2025, 6, 1),
		})
		require.NoError(t, err)
	}
	_, err := repo.AppendTransaction(ctx, core.Transaction{
		Description: "bus",
		Amount:      core.Money{Cents: -200},
		Category:    "Transportation",
		Date:        core.NewDate(2025, 6, 1),
	})
	require.NoError(t, err)

	reassigned, err := repo.DeleteCategoryReassigning(ctx, "Food")
	require.NoError(t, err)
	assert.Equal(t, int64(3), reassigned)

	cats, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	assert.NotContains(t, cats, "Food")
	assert.Contains(t, cats, core.FallbackCategory)

	txs, err := repo.ListTransactions(ctx)
	require.NoError(t, err)
	for _, tx := range txs {
		if tx.Description == "lunch" {
			assert.Equal(t, core.FallbackCategory, tx.Category)
		}
	}
}

func TestGoalRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	g := core.Goal{
		ID:            "11111111-2222-3333-4444-555555555555",
		Name:          "New laptop",
		TargetAmount:  core.Money{Cents: 100000},
		TargetDate:    core.NewDate(2026, 1, 1),
		CurrentAmount: core.Money{Cents: 5000},
		CreatedAt:     time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.AddGoal(ctx, g))

	goals, err := repo.ListGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, g.ID, goals[0].ID)
	assert.Equal(t, g.Name, goals[0].Name)
	assert.Equal(t, g.TargetAmount, goals[0].TargetAmount)
	assert.Equal(t, "2026-01-01", goals[0].TargetDate.String())
	assert.Equal(t, g.CurrentAmount, goals[0].CurrentAmount)
	assert.True(t, g.CreatedAt.Equal(goals[0].CreatedAt))

	g.Name = "Better laptop"
	g.TargetAmount = core.Money{Cents: 150000}
	updated, err := repo.UpdateGoal(ctx, g)
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := repo.GetGoal(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Better laptop", got.Name)
	assert.Equal(t, int64(150000), got.TargetAmount.Cents)

	deleted, err := repo.DeleteGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	missing, err := repo.GetGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestContributeToGoalAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	g := core.Goal{
		ID:           "goal-1",
		Name:         "Emergency fund",
		TargetAmount: core.Money{Cents: 100000},
		TargetDate:   core.NewDate(2026, 1, 1),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.AddGoal(ctx, g))

	updated := g
	updated.CurrentAmount = core.Money{Cents: 5000}
	linked := core.Transaction{
		Description: "Contribution to Emergency fund",
		Amount:      core.Money{Cents: -5000},
		Category:    core.SavingsCategory,
		Date:        core.NewDate(2025, 6, 1),
	}

	txID, err := repo.ContributeToGoal(ctx, updated, linked)
	require.NoError(t, err)
	require.Positive(t, txID)

	got, err := repo.GetGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.CurrentAmount.Cents)

	txs, err := repo.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, core.SavingsCategory, txs[0].Category)
	assert.Equal(t, int64(-5000), txs[0].Amount.Cents)

	// A contribution against a vanished goal writes nothing at all.
	_, err = repo.ContributeToGoal(ctx, core.Goal{ID: "nope", CurrentAmount: core.Money{Cents: 1}}, linked)
	require.Error(t, err)

	txs, err = repo.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 1, "failed contribution must not append a transaction")
}

func TestPendingSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.AppendTransaction(ctx, core.Transaction{
		Description: "salary",
		Amount:      core.Money{Cents: 100000},
		Category:    "Income",
		Date:        core.NewDate(2025, 6, 1),
	})
	require.NoError(t, err)

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)
	assert.Equal(t, int64(1), pending[0].Version)
	assert.False(t, pending[0].CreatedAt.IsZero())

	require.NoError(t, repo.MarkSynced(ctx, id))
	pending, err = repo.GetPendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
