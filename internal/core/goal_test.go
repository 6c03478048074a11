package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noon keeps day arithmetic unambiguous: the deadline is always a midnight
// boundary, so "10 days from now" really is ten calendar days away.
var noon = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testGoal(currentCents, targetCents int64, targetDate Date) Goal {
	return Goal{
		ID:            "g1",
		Name:          "Emergency fund",
		TargetAmount:  Money{Cents: targetCents},
		TargetDate:    targetDate,
		CurrentAmount: Money{Cents: currentCents},
		CreatedAt:     noon.AddDate(0, -1, 0),
	}
}

func TestComputeGoalProgressTenDaysOut(t *testing.T) {
	g := testGoal(30000, 100000, NewDate(2025, 6, 11))

	p := ComputeGoalProgress(g, noon)
	assert.InDelta(t, 30.0, p.Percent, 1e-9)
	assert.Equal(t, int64(70000), p.Remaining.Cents)
	assert.Equal(t, 10, p.DaysLeft)
	assert.Equal(t, int64(7000), p.DailyNeeded.Cents)
	assert.False(t, p.Completed)
	assert.False(t, p.Overdue)
}

func TestComputeGoalProgressOverdue(t *testing.T) {
	g := testGoal(30000, 100000, NewDate(2025, 5, 27))

	p := ComputeGoalProgress(g, noon)
	assert.Equal(t, 0, p.DaysLeft)
	assert.Equal(t, int64(0), p.DailyNeeded.Cents)
	assert.True(t, p.Overdue)
	assert.False(t, p.Completed)
}

func TestComputeGoalProgressDueTodayNotOverdue(t *testing.T) {
	g := testGoal(30000, 100000, NewDate(2025, 6, 1))

	p := ComputeGoalProgress(g, noon)
	assert.Equal(t, 0, p.DaysLeft)
	assert.False(t, p.Overdue, "due today is not overdue")
}

func TestComputeGoalProgressCompletedPastDeadline(t *testing.T) {
	g := testGoal(120000, 100000, NewDate(2025, 5, 1))

	p := ComputeGoalProgress(g, noon)
	assert.True(t, p.Completed)
	assert.False(t, p.Overdue, "completed goals are never overdue")
	assert.Equal(t, 100.0, p.Percent)
	assert.Equal(t, int64(0), p.Remaining.Cents)
}

func TestComputeGoalProgressBounds(t *testing.T) {
	for _, current := range []int64{0, 1, 99999, 100000, 250000} {
		p := ComputeGoalProgress(testGoal(current, 100000, NewDate(2025, 6, 11)), noon)
		assert.LessOrEqual(t, p.Percent, 100.0)
		assert.GreaterOrEqual(t, p.Remaining.Cents, int64(0))
		assert.GreaterOrEqual(t, p.DaysLeft, 0)
	}
}

func TestContribute(t *testing.T) {
	g := testGoal(30000, 100000, NewDate(2025, 6, 11))

	updated, contribTx, err := g.Contribute(Money{Cents: 5000}, Money{Cents: 20000}, noon)
	require.NoError(t, err)
	assert.Equal(t, int64(35000), updated.CurrentAmount.Cents)
	assert.Equal(t, int64(-5000), contribTx.Amount.Cents)
	assert.Equal(t, SavingsCategory, contribTx.Category)
	assert.Equal(t, "Contribution to Emergency fund", contribTx.Description)
	assert.Equal(t, "2025-06-01", contribTx.Date.String())

	// Original goal untouched.
	assert.Equal(t, int64(30000), g.CurrentAmount.Cents)
}

func TestContributeInsufficientFunds(t *testing.T) {
	g := testGoal(30000, 100000, NewDate(2025, 6, 11))

	_, _, err := g.Contribute(Money{Cents: 20001}, Money{Cents: 20000}, noon)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Exactly the balance is fine.
	_, _, err = g.Contribute(Money{Cents: 20000}, Money{Cents: 20000}, noon)
	assert.NoError(t, err)
}

func TestContributeRejectsNonPositive(t *testing.T) {
	g := testGoal(0, 100000, NewDate(2025, 6, 11))
	for _, cents := range []int64{0, -100} {
		_, _, err := g.Contribute(Money{Cents: cents}, Money{Cents: 100000}, noon)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
}
