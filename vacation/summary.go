/*
summary.go - Recomputation of the per-user vacation summary

PURPOSE:
  Keeps the derived VacationSummary row in sync with the authoritative
  range set. Invoked synchronously after each range mutation, and in
  bulk for backfill/repair.

ALGORITHM:
  1. Planned ranges for the user, ordered (start_date DESC, end_date
     DESC), top 2: first -> active planned, second -> last planned.
  2. Most recent not-planned range by the same ordering -> not planned.
  3. Upsert all three references in one write.

  "Active" is decided by ordering alone - the most recently starting
  planned range wins even if it lies entirely in the past or future.
  The second-most-recent is the historical predecessor. This is a
  denormalization that spares an aggregate query on every summary read.

IDEMPOTENCE:
  Recompute has no side effects besides its own upsert, so it can be
  replayed any number of times (and across all users via RecomputeAll)
  without triggering notifications.
*/
package vacation

import (
	"context"
	"fmt"
)

// SummaryEngine recomputes VacationSummary rows from ranges.
type SummaryEngine struct {
	Store Store
}

func NewSummaryEngine(store Store) *SummaryEngine {
	return &SummaryEngine{Store: store}
}

// Recompute rebuilds the user's summary from their current ranges.
// On failure nothing is written: the upsert is a single atomic call.
func (e *SummaryEngine) Recompute(ctx context.Context, user UserID) error {
	planned := true
	plannedRanges, err := e.Store.FindRanges(ctx, RangeQuery{
		UserID:  &user,
		Planned: &planned,
		Order:   OrderDesc,
		Limit:   2,
	})
	if err != nil {
		return &SummaryError{UserID: user, Err: fmt.Errorf("load planned ranges: %w", err)}
	}

	notPlanned := false
	notPlannedRanges, err := e.Store.FindRanges(ctx, RangeQuery{
		UserID:  &user,
		Planned: &notPlanned,
		Order:   OrderDesc,
		Limit:   1,
	})
	if err != nil {
		return &SummaryError{UserID: user, Err: fmt.Errorf("load not-planned ranges: %w", err)}
	}

	var fields SummaryFields
	if len(plannedRanges) > 0 {
		fields.ActivePlanned = &plannedRanges[0].ID
	}
	if len(plannedRanges) > 1 {
		fields.LastPlanned = &plannedRanges[1].ID
	}
	if len(notPlannedRanges) > 0 {
		fields.NotPlanned = &notPlannedRanges[0].ID
	}

	if err := e.Store.UpsertSummary(ctx, user, fields); err != nil {
		return &SummaryError{UserID: user, Err: err}
	}
	return nil
}

// RecomputeAll rebuilds the summary of every user owning at least one
// range. Used for backfill and repair; never dispatches notifications.
// The first failure aborts the pass.
func (e *SummaryEngine) RecomputeAll(ctx context.Context) error {
	users, err := e.Store.UserIDsWithRanges(ctx)
	if err != nil {
		return fmt.Errorf("list users with ranges: %w", err)
	}
	for _, user := range users {
		if err := e.Recompute(ctx, user); err != nil {
			return err
		}
	}
	return nil
}
