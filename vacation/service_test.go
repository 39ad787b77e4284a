package vacation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/vacation"
	"github.com/warp/vacation-engine/vacation/store"
)

// =============================================================================
// FIXTURES
// =============================================================================

func newService(t *testing.T) (*vacation.Service, *store.Memory, *store.Recorder) {
	t.Helper()

	mem := store.NewMemory()
	seedStatuses(t, mem)
	rec := store.NewRecorder()
	return vacation.NewService(mem, mem, rec, nil), mem, rec
}

func fieldCode(t *testing.T, verrs vacation.ValidationErrors, field string) string {
	t.Helper()

	fe := verrs.On(field)
	require.NotNil(t, fe, "expected an error on %s", field)
	return fe.Code
}

func validInput() vacation.RangeInput {
	return vacation.RangeInput{
		UserID:    10,
		StatusID:  1, // planned, per seedStatuses
		StartDate: date(2025, time.July, 1),
		EndDate:   datePtr(2025, time.July, 14),
	}
}

// =============================================================================
// CREATE
// =============================================================================

func TestService_CreateRange_HappyPath(t *testing.T) {
	// GIVEN a valid input and one overlapping open work item
	svc, mem, rec := newService(t)
	mem.AddWorkItem(openItem(1, 10, 20, datePtr(2025, time.July, 2), nil))

	// WHEN creating the range
	rng, err := svc.CreateRange(context.Background(), validInput())

	// THEN it is persisted, the summary points at it, and the
	// collaborator was notified
	require.NoError(t, err)
	require.NotZero(t, rng.ID)

	summary, err := mem.Summary(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, summary.ActivePlanned)
	assert.Equal(t, rng.ID, *summary.ActivePlanned)

	all := rec.All()
	require.Len(t, all, 1)
	assert.Equal(t, vacation.UserID(20), all[0].RecipientID)
	assert.Equal(t, rng.ID, all[0].RangeID)
}

func TestService_CreateRange_MissingFields(t *testing.T) {
	svc, mem, _ := newService(t)

	_, err := svc.CreateRange(context.Background(), vacation.RangeInput{})

	require.Error(t, err)
	assert.ErrorIs(t, err, vacation.ErrValidation)
	assert.True(t, vacation.IsClientError(err))

	var verrs vacation.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, vacation.CodeRequired, fieldCode(t, verrs, "user_id"))
	assert.Equal(t, vacation.CodeRequired, fieldCode(t, verrs, "vacation_status_id"))
	assert.Equal(t, vacation.CodeRequired, fieldCode(t, verrs, "start_date"))

	// Nothing was persisted.
	summary, err := mem.Summary(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestService_CreateRange_EndBeforeStart(t *testing.T) {
	svc, _, _ := newService(t)

	in := validInput()
	in.EndDate = datePtr(2025, time.June, 30)

	_, err := svc.CreateRange(context.Background(), in)

	var verrs vacation.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, vacation.CodeInvalid, fieldCode(t, verrs, "end_date"))
}

func TestService_CreateRange_DuplicateEndpointsTaken(t *testing.T) {
	// GIVEN an existing range for the user
	svc, _, _ := newService(t)
	_, err := svc.CreateRange(context.Background(), validInput())
	require.NoError(t, err)

	// WHEN creating another with the same start and end dates
	_, err = svc.CreateRange(context.Background(), validInput())

	// THEN both endpoints are rejected as taken
	var verrs vacation.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, vacation.CodeTaken, fieldCode(t, verrs, "start_date"))
	assert.Equal(t, vacation.CodeTaken, fieldCode(t, verrs, "end_date"))
}

func TestService_CreateRange_SameDatesOtherUser(t *testing.T) {
	// Uniqueness is scoped per user.
	svc, _, _ := newService(t)
	_, err := svc.CreateRange(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.UserID = 11
	_, err = svc.CreateRange(context.Background(), in)
	assert.NoError(t, err)
}

// =============================================================================
// UPDATE
// =============================================================================

func TestService_UpdateRange_SkipsUniquenessCheck(t *testing.T) {
	// GIVEN a persisted range
	svc, _, _ := newService(t)
	rng, err := svc.CreateRange(context.Background(), validInput())
	require.NoError(t, err)

	// WHEN re-saving it with its own dates unchanged
	in := validInput()
	in.Description = "updated"
	updated, err := svc.UpdateRange(context.Background(), rng.ID, in)

	// THEN the update succeeds; endpoint uniqueness binds create only
	require.NoError(t, err)
	assert.Equal(t, rng.ID, updated.ID)
	assert.Equal(t, "updated", updated.Description)
}

func TestService_UpdateRange_OntoExistingEndpoints(t *testing.T) {
	// GIVEN two ranges for the same user
	svc, _, _ := newService(t)
	_, err := svc.CreateRange(context.Background(), validInput())
	require.NoError(t, err)

	later := validInput()
	later.StartDate = date(2025, time.August, 1)
	later.EndDate = datePtr(2025, time.August, 10)
	second, err := svc.CreateRange(context.Background(), later)
	require.NoError(t, err)

	// WHEN moving the second onto the first's dates
	moved, err := svc.UpdateRange(context.Background(), second.ID, validInput())

	// THEN the update succeeds; endpoint uniqueness binds creation only
	require.NoError(t, err)
	assert.True(t, moved.StartDate.Equal(date(2025, time.July, 1)))
}

func TestService_UpdateRange_NotFound(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.UpdateRange(context.Background(), 999, validInput())

	require.Error(t, err)
	assert.True(t, vacation.IsNotFound(err))
}

func TestService_UpdateRange_RevalidatesDates(t *testing.T) {
	svc, _, _ := newService(t)
	rng, err := svc.CreateRange(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.EndDate = datePtr(2025, time.June, 1)
	_, err = svc.UpdateRange(context.Background(), rng.ID, in)

	var verrs vacation.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, vacation.CodeInvalid, fieldCode(t, verrs, "end_date"))
}

// =============================================================================
// POST-SAVE FAILURES
// =============================================================================

// summaryFailStore fails every summary upsert.
type summaryFailStore struct {
	*store.Memory
}

func (s summaryFailStore) UpsertSummary(context.Context, vacation.UserID, vacation.SummaryFields) error {
	return errors.New("disk full")
}

func TestService_SummaryFailure_SaveStandsDispatchSkipped(t *testing.T) {
	// GIVEN a store whose summary writes fail
	mem := store.NewMemory()
	seedStatuses(t, mem)
	mem.AddWorkItem(openItem(1, 10, 20, datePtr(2025, time.July, 2), nil))
	rec := store.NewRecorder()
	svc := vacation.NewService(summaryFailStore{mem}, mem, rec, nil)

	// WHEN creating a range
	rng, err := svc.CreateRange(context.Background(), validInput())

	// THEN the save stands and the error is a post-save summary error
	require.Error(t, err)
	assert.ErrorIs(t, err, vacation.ErrSummaryPersistence)
	assert.True(t, vacation.IsPostSaveError(err))
	require.NotNil(t, rng, "saved range is returned alongside the error")
	assert.NotZero(t, rng.ID)

	persisted, ferr := mem.FindRange(context.Background(), rng.ID)
	require.NoError(t, ferr)
	assert.Equal(t, rng.ID, persisted.ID)

	// AND dispatch never ran on top of the stale summary
	assert.Empty(t, rec.All())
}

func TestService_DispatchFailure_SaveAndSummaryStand(t *testing.T) {
	// GIVEN a transport that rejects batches
	mem := store.NewMemory()
	seedStatuses(t, mem)
	mem.AddWorkItem(openItem(1, 10, 20, datePtr(2025, time.July, 2), nil))
	rec := store.NewRecorder()
	rec.FailWith = errors.New("broker unavailable")
	svc := vacation.NewService(mem, mem, rec, nil)

	// WHEN creating a range
	rng, err := svc.CreateRange(context.Background(), validInput())

	// THEN the save and the summary stand
	require.Error(t, err)
	assert.ErrorIs(t, err, vacation.ErrNotificationDispatch)
	assert.True(t, vacation.IsPostSaveError(err))
	require.NotNil(t, rng)

	summary, serr := mem.Summary(context.Background(), 10)
	require.NoError(t, serr)
	require.NotNil(t, summary.ActivePlanned)
	assert.Equal(t, rng.ID, *summary.ActivePlanned)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestService_ConcurrentCreates_DistinctUsers(t *testing.T) {
	svc, mem, _ := newService(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		user := vacation.UserID(100 + i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := validInput()
			in.UserID = user
			_, err := svc.CreateRange(context.Background(), in)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	users, err := mem.UserIDsWithRanges(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 8)
}
