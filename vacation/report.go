package vacation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// USER REPORT - Leave statistics for one user
// =============================================================================

// UserReport aggregates a user's leave history. Averages use decimal
// arithmetic to avoid floating-point drift in reports.
type UserReport struct {
	UserID          UserID
	PlannedCount    int
	PlannedDays     decimal.Decimal
	AverageLength   decimal.Decimal
	NotPlannedCount int
	NotPlannedDays  decimal.Decimal
}

// BuildUserReport computes leave statistics over all of a user's
// ranges. Purely read-only.
func BuildUserReport(ctx context.Context, store Store, user UserID) (*UserReport, error) {
	ranges, err := store.FindRanges(ctx, RangeQuery{UserID: &user, Order: OrderAsc})
	if err != nil {
		return nil, fmt.Errorf("load ranges for report: %w", err)
	}

	statuses, err := store.ListStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load statuses for report: %w", err)
	}
	planned := make(map[StatusID]bool, len(statuses))
	for _, st := range statuses {
		planned[st.ID] = st.IsPlanned
	}

	report := &UserReport{
		UserID:         user,
		PlannedDays:    decimal.Zero,
		AverageLength:  decimal.Zero,
		NotPlannedDays: decimal.Zero,
	}

	for i := range ranges {
		days := decimal.NewFromInt(int64(ranges[i].Days()))
		if planned[ranges[i].StatusID] {
			report.PlannedCount++
			report.PlannedDays = report.PlannedDays.Add(days)
		} else {
			report.NotPlannedCount++
			report.NotPlannedDays = report.NotPlannedDays.Add(days)
		}
	}

	if report.PlannedCount > 0 {
		report.AverageLength = report.PlannedDays.
			Div(decimal.NewFromInt(int64(report.PlannedCount))).
			Round(2)
	}
	return report, nil
}
