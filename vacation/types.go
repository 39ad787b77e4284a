/*
Package vacation provides the core leave-tracking engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  employee vacation ranges: range validation, the per-user rolling
  summary (active / last planned and most recent unplanned leave), and
  the conflict-aware notification fan-out that tells collaborators on
  open work items who to talk to instead.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date: A calendar date (day granularity, no timezone modeling)
  - VacationRange: A closed interval [start, end?] owned by one user
  - VacationStatus: Planned vs not-planned leave category
  - VacationSummary: Derived per-user cache of the most relevant ranges
  - WorkItem: External issue with an author and an assignee

DESIGN PRINCIPLES:
  1. The summary is a derived cache: always recomputable from ranges
  2. Predicates are pure; all side effects go through Store/Transport
  3. Strong typing for IDs prevents mixing user/range/status ids

SEE ALSO:
  - service.go: The validate -> persist -> recompute -> dispatch pipeline
  - summary.go: Summary recomputation
  - dispatch.go: Notification fan-out
*/
package vacation

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID int64
type RangeID int64
type StatusID int64
type WorkItemID int64

// =============================================================================
// DATE - Calendar date at day granularity
// =============================================================================

// Date is a calendar date. The zero value means "absent".
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a date in "2006-01-02" form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.t.Before(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{t: d.t.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{t: d.t.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) YearDay() int      { return d.t.YearDay() }
func (d Date) IsZero() bool      { return d.t.IsZero() }

// Weekday returns the day-of-week offset from the start of the week,
// Sunday = 0.
func (d Date) Weekday() int { return int(d.t.Weekday()) }

func (d Date) Time() time.Time { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the number of whole days from one date to another.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// =============================================================================
// VACATION STATUS - Planned vs not-planned leave category
// =============================================================================

type VacationStatus struct {
	ID        StatusID
	Name      string
	IsPlanned bool
}

// =============================================================================
// VACATION RANGE - One leave period owned by one user
// =============================================================================

type VacationRange struct {
	ID          RangeID
	UserID      UserID
	StatusID    StatusID
	StartDate   Date
	EndDate     *Date // open-ended when nil
	Duration    *int  // informational, in days
	Description string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contains reports whether the date falls inside the range.
// Always false for open-ended ranges (no end date).
func (r *VacationRange) Contains(d Date) bool {
	if r.StartDate.IsZero() || r.EndDate == nil {
		return false
	}
	return r.StartDate.BeforeOrEqual(d) && r.EndDate.AfterOrEqual(d)
}

// Overlaps reports whether either endpoint of the query range falls
// inside this range. The end defaults to the start when absent.
//
// NOTE: this is intentionally NOT full interval intersection. A query
// range that strictly contains this range without touching either of
// its endpoints is not detected. That matches the upstream behavior
// this engine replaces; do not "fix" without confirming product intent.
func (r *VacationRange) Overlaps(start Date, end *Date) bool {
	if end == nil {
		end = &start
	}
	return r.Contains(start) || r.Contains(*end)
}

// String renders "start" or "start - end".
func (r *VacationRange) String() string {
	if r.EndDate == nil {
		return r.StartDate.String()
	}
	return r.StartDate.String() + " - " + r.EndDate.String()
}

// TitleDescription normalizes the free-text description for single-line
// display contexts.
func (r *VacationRange) TitleDescription() string {
	return strings.ReplaceAll(r.Description, "\r\n", "\r")
}

// Days returns the informational length of the range in days: the
// inclusive span when an end date is present, the stored duration
// otherwise, and 1 as a last resort.
func (r *VacationRange) Days() int {
	if r.EndDate != nil {
		return DaysBetween(r.StartDate, *r.EndDate) + 1
	}
	if r.Duration != nil {
		return *r.Duration
	}
	return 1
}

// =============================================================================
// VACATION SUMMARY - Derived per-user cache, one row per user
// =============================================================================

// VacationSummary caches the three most relevant ranges for a user.
// It is derived data: always safe to fully recompute from the ranges.
//
// "Active" is the most recently STARTING planned range, decided by
// ordering alone - no comparison against today is performed.
type VacationSummary struct {
	UserID        UserID
	ActivePlanned *RangeID
	LastPlanned   *RangeID
	NotPlanned    *RangeID

	UpdatedAt time.Time
}

// SummaryFields is the full set of references written on every upsert.
// All three are written together in a single store call so a partial
// update is never observable.
type SummaryFields struct {
	ActivePlanned *RangeID
	LastPlanned   *RangeID
	NotPlanned    *RangeID
}

// =============================================================================
// WORK ITEM - External collaborator entity (an "issue")
// =============================================================================

// WorkItem is the slice of an external issue the dispatcher needs.
// A zero AuthorID or AssigneeID means "nobody".
type WorkItem struct {
	ID         WorkItemID
	AuthorID   UserID
	AssigneeID UserID
	Subject    string
	StartDate  Date
	DueDate    *Date
	Open       bool
}
