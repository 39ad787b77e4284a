/*
service.go - The range mutation pipeline

PURPOSE:
  The single entry point for creating and updating vacation ranges.
  Runs an explicit, ordered pipeline instead of implicit persistence
  hooks, so ordering and failure boundaries stay visible and testable:

    validate -> persist -> recompute summary -> dispatch notifications

FAILURE BOUNDARIES:
  - Validation failure: the range is never persisted; the caller gets
    field-scoped ValidationErrors.
  - Summary failure: the save stands; the saved range is returned
    together with a SummaryError, and dispatch is skipped (no fan-out
    on top of a stale summary).
  - Dispatch failure: the save and the summary stand; the saved range
    is returned together with a DispatchError.

CONCURRENCY:
  Mutations for the same user are serialized through a per-user lock so
  the summary recompute never reads a torn view of that user's ranges.
  Mutations for different users proceed in parallel.
*/
package vacation

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Service owns the mutation pipeline.
type Service struct {
	Store      Store
	Summaries  *SummaryEngine
	Dispatcher *Dispatcher
	Logger     *logrus.Logger

	users userLocks
}

func NewService(store Store, items WorkItemSource, transport Transport, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		Store:      store,
		Summaries:  NewSummaryEngine(store),
		Dispatcher: NewDispatcher(items, transport, logger),
		Logger:     logger,
	}
}

// RangeInput carries the writable attributes of a range.
type RangeInput struct {
	UserID      UserID
	StatusID    StatusID
	StartDate   Date
	EndDate     *Date
	Duration    *int
	Description string
}

// CreateRange validates and persists a new range, then runs the
// post-save steps. On a post-save failure the saved range is returned
// together with the error.
func (s *Service) CreateRange(ctx context.Context, in RangeInput) (*VacationRange, error) {
	unlock := s.users.lock(in.UserID)
	defer unlock()

	rng := &VacationRange{
		UserID:      in.UserID,
		StatusID:    in.StatusID,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Duration:    in.Duration,
		Description: in.Description,
	}

	if err := s.validate(ctx, rng, true); err != nil {
		return nil, err
	}
	if err := s.Store.SaveRange(ctx, rng); err != nil {
		return nil, err
	}
	return rng, s.afterSave(ctx, rng)
}

// UpdateRange validates and persists changes to an existing range,
// then runs the post-save steps. Start/end uniqueness is only enforced
// on create, matching the system this engine replaces.
func (s *Service) UpdateRange(ctx context.Context, id RangeID, in RangeInput) (*VacationRange, error) {
	unlock := s.users.lock(in.UserID)
	defer unlock()

	rng, err := s.Store.FindRange(ctx, id)
	if err != nil {
		return nil, err
	}

	rng.UserID = in.UserID
	rng.StatusID = in.StatusID
	rng.StartDate = in.StartDate
	rng.EndDate = in.EndDate
	rng.Duration = in.Duration
	rng.Description = in.Description

	if err := s.validate(ctx, rng, false); err != nil {
		return nil, err
	}
	if err := s.Store.SaveRange(ctx, rng); err != nil {
		return nil, err
	}
	return rng, s.afterSave(ctx, rng)
}

func (s *Service) afterSave(ctx context.Context, rng *VacationRange) error {
	if err := s.Summaries.Recompute(ctx, rng.UserID); err != nil {
		s.Logger.WithFields(logrus.Fields{
			"range_id": rng.ID,
			"user_id":  rng.UserID,
		}).WithError(err).Error("summary recompute failed after save")
		return err
	}
	if err := s.Dispatcher.Dispatch(ctx, rng); err != nil {
		s.Logger.WithFields(logrus.Fields{
			"range_id": rng.ID,
			"user_id":  rng.UserID,
		}).WithError(err).Error("notification dispatch failed after save")
		return err
	}
	return nil
}

// validate enforces the range invariants. All field failures found in
// one pass are reported together.
func (s *Service) validate(ctx context.Context, rng *VacationRange, create bool) error {
	var errs ValidationErrors

	if rng.UserID == 0 {
		errs = append(errs, &FieldError{Field: "user_id", Code: CodeRequired})
	}
	if rng.StatusID == 0 {
		errs = append(errs, &FieldError{Field: "vacation_status_id", Code: CodeRequired})
	}
	if rng.StartDate.IsZero() {
		errs = append(errs, &FieldError{Field: "start_date", Code: CodeRequired})
	}

	if !rng.StartDate.IsZero() && rng.EndDate != nil && rng.StartDate.After(*rng.EndDate) {
		errs = append(errs, &FieldError{Field: "end_date", Code: CodeInvalid})
	}

	if create && rng.UserID != 0 && !rng.StartDate.IsZero() {
		taken, err := s.Store.HasRangeStarting(ctx, rng.UserID, rng.StartDate)
		if err != nil {
			return err
		}
		if taken {
			errs = append(errs, &FieldError{Field: "start_date", Code: CodeTaken})
		}
	}
	if create && rng.UserID != 0 && rng.EndDate != nil {
		taken, err := s.Store.HasRangeEnding(ctx, rng.UserID, *rng.EndDate)
		if err != nil {
			return err
		}
		if taken {
			errs = append(errs, &FieldError{Field: "end_date", Code: CodeTaken})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// PER-USER LOCKS
// =============================================================================

type userLocks struct {
	mu    sync.Mutex
	locks map[UserID]*sync.Mutex
}

func (ul *userLocks) lock(user UserID) (unlock func()) {
	ul.mu.Lock()
	if ul.locks == nil {
		ul.locks = make(map[UserID]*sync.Mutex)
	}
	m, ok := ul.locks[user]
	if !ok {
		m = &sync.Mutex{}
		ul.locks[user] = m
	}
	ul.mu.Unlock()

	m.Lock()
	return m.Unlock
}
