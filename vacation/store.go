/*
store.go - Collaborator interfaces consumed by the engine

PURPOSE:
  Defines the boundary between the domain logic and its external
  collaborators: the range/summary store, the work item tracker, and
  the manager directory. Different implementations can use SQLite,
  PostgreSQL, or in-memory storage.

QUERY SPECIFICATION:
  Range listing takes an explicit RangeQuery value - a set of named
  optional predicates (user, planned flag, status, bucket interval,
  ordering, limit) - passed once to the store, instead of chained
  mutable builder calls.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - vacation/store/memory.go: In-memory for testing

SEE ALSO:
  - bucket.go: Where the Interval filter values come from
  - summary.go, dispatch.go: Consumers of these interfaces
*/
package vacation

import "context"

// =============================================================================
// RANGE QUERY - Explicit filter/ordering/limit specification
// =============================================================================

type Order string

const (
	OrderAsc  Order = "ASC"
	OrderDesc Order = "DESC"
)

// DateField names the range column a bucket interval applies to.
type DateField string

const (
	FieldStartDate DateField = "start_date"
	FieldEndDate   DateField = "end_date"
)

// RangeQuery filters and orders a range listing. Nil predicate fields
// match everything. Ordering is always by (start_date, end_date);
// Order selects the direction, ascending by default.
type RangeQuery struct {
	UserID      *UserID
	Planned     *bool
	StatusID    *StatusID
	Bucket      *Interval
	BucketField DateField // defaults to FieldStartDate
	Order       Order
	Limit       int // 0 = no limit
}

// Field returns the date field the bucket applies to.
func (q RangeQuery) Field() DateField {
	if q.BucketField == "" {
		return FieldStartDate
	}
	return q.BucketField
}

// =============================================================================
// STORE - Range, status, and summary persistence
// =============================================================================

type Store interface {
	// SaveRange inserts the range when ID is zero (assigning a new ID)
	// and updates it otherwise.
	SaveRange(ctx context.Context, r *VacationRange) error

	// FindRange returns the range or ErrRangeNotFound.
	FindRange(ctx context.Context, id RangeID) (*VacationRange, error)

	// FindRanges returns ranges matching the query, in query order.
	FindRanges(ctx context.Context, q RangeQuery) ([]VacationRange, error)

	// HasRangeStarting reports whether the user already has a range
	// with this exact start date.
	HasRangeStarting(ctx context.Context, user UserID, d Date) (bool, error)

	// HasRangeEnding reports whether the user already has a range with
	// this exact end date.
	HasRangeEnding(ctx context.Context, user UserID, d Date) (bool, error)

	// FindStatus returns the status or ErrStatusNotFound.
	FindStatus(ctx context.Context, id StatusID) (*VacationStatus, error)

	ListStatuses(ctx context.Context) ([]VacationStatus, error)

	// SaveStatus inserts the status when ID is zero, updates otherwise.
	SaveStatus(ctx context.Context, s *VacationStatus) error

	// Summary returns the user's summary row, or nil when the user has
	// never had a range mutation.
	Summary(ctx context.Context, user UserID) (*VacationSummary, error)

	// UpsertSummary writes all three summary references in one atomic
	// write, creating the row on first use. A partial update must never
	// be observable.
	UpsertSummary(ctx context.Context, user UserID, fields SummaryFields) error

	// UserIDsWithRanges returns every user owning at least one range,
	// for bulk summary repair.
	UserIDsWithRanges(ctx context.Context) ([]UserID, error)
}

// =============================================================================
// WORK ITEM SOURCE - The external issue tracker
// =============================================================================

type WorkItemSource interface {
	// OpenItemsByAuthor returns open work items authored by the user.
	OpenItemsByAuthor(ctx context.Context, user UserID) ([]WorkItem, error)

	// OpenItemsByAssignee returns open work items assigned to the user.
	OpenItemsByAssignee(ctx context.Context, user UserID) ([]WorkItem, error)
}

// =============================================================================
// MANAGER DIRECTORY - Who oversees whose leave
// =============================================================================

type ManagerDirectory interface {
	// IsManager reports whether the user manages anyone's vacations.
	IsManager(ctx context.Context, user UserID) (bool, error)

	// NonManagers returns the users who are not a vacation manager for
	// anyone.
	NonManagers(ctx context.Context) ([]UserID, error)
}
