package core

import (
	"fmt"
	"time"
)

// GoalProgress is the derived view of a goal at a point in time.
type GoalProgress struct {
	// Percent is currentAmount/targetAmount*100, capped at 100.
	Percent float64
	// Remaining is the amount still missing, floored at zero.
	Remaining Money
	// DaysLeft is the whole days until the deadline, floored at zero.
	DaysLeft int
	// DailyNeeded is how much must be saved per day to hit the target in
	// time; zero once the deadline has passed.
	DailyNeeded Money
	Completed   bool
	Overdue     bool
}

// ComputeGoalProgress derives progress metrics for a goal relative to now.
// The goal's target amount must be positive; that invariant is enforced at
// creation time, not here.
//
// Overdue is decided on the raw signed day count, not the floored DaysLeft:
// a goal due exactly today has zero days left but is not overdue.
func ComputeGoalProgress(g Goal, now time.Time) GoalProgress {
	rawDays := daysUntil(g.TargetDate, now)

	p := GoalProgress{
		Percent:   float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents) * 100,
		Completed: g.CurrentAmount.Cents >= g.TargetAmount.Cents,
		Overdue:   rawDays < 0 && g.CurrentAmount.Cents < g.TargetAmount.Cents,
	}
	if p.Percent > 100 {
		p.Percent = 100
	}
	if rem := g.TargetAmount.Cents - g.CurrentAmount.Cents; rem > 0 {
		p.Remaining = Money{Cents: rem}
	}
	if rawDays > 0 {
		p.DaysLeft = rawDays
		// Ceiling division so saving DailyNeeded every day always reaches
		// the target; sub-cent leftovers round against the saver.
		p.DailyNeeded = Money{Cents: (p.Remaining.Cents + int64(rawDays) - 1) / int64(rawDays)}
	}
	return p
}

// daysUntil returns the signed whole-day distance to the target date,
// rounded up (ceiling), so a deadline later today still counts as due today.
func daysUntil(target Date, now time.Time) int {
	diff := target.Sub(now)
	days := diff / (24 * time.Hour)
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return int(days)
}

// Contribute moves amount from the general balance into the goal. It fails
// with ErrInsufficientFunds when amount exceeds availableBalance and with
// ErrInvalidAmount when amount is not positive.
//
// On success it returns the updated goal together with exactly one linked
// expense transaction (category "Savings", dated now). Persisting the pair
// atomically is the caller's job.
func (g Goal) Contribute(amount Money, availableBalance Money, now time.Time) (Goal, Transaction, error) {
	if amount.Cents <= 0 {
		return Goal{}, Transaction{}, ErrInvalidAmount
	}
	if amount.Cents > availableBalance.Cents {
		return Goal{}, Transaction{}, ErrInsufficientFunds
	}

	updated := g
	updated.CurrentAmount.Cents += amount.Cents

	tx := Transaction{
		Description: fmt.Sprintf("Contribution to %s", g.Name),
		Amount:      amount.Neg(),
		Category:    SavingsCategory,
		Date:        DateOf(now),
	}
	return updated, tx, nil
}
