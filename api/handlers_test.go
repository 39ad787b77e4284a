package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/vacation-engine/vacation"
	"github.com/warp/vacation-engine/vacation/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testEnv struct {
	handler *Handler
	router  http.Handler
	mem     *store.Memory
	rec     *store.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mem := store.NewMemory()
	approved := &vacation.VacationStatus{Name: "Approved", IsPlanned: true}
	require.NoError(t, mem.SaveStatus(context.Background(), approved))
	sick := &vacation.VacationStatus{Name: "Sick leave", IsPlanned: false}
	require.NoError(t, mem.SaveStatus(context.Background(), sick))

	rec := store.NewRecorder()
	svc := vacation.NewService(mem, mem, rec, nil)
	h := NewHandler(svc, mem, mem, nil)
	return &testEnv{handler: h, router: NewRouter(h), mem: mem, rec: rec}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func rangeBody(userID int64) map[string]any {
	return map[string]any{
		"user_id":            userID,
		"vacation_status_id": 1,
		"start_date":         "2025-07-01",
		"end_date":           "2025-07-14",
		"description":        "summer break",
	}
}

// =============================================================================
// RANGES
// =============================================================================

func TestCreateRange_Created(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/ranges", rangeBody(10))

	require.Equal(t, http.StatusCreated, w.Code)
	dto := decode[RangeDTO](t, w)
	assert.NotZero(t, dto.ID)
	assert.Equal(t, int64(10), dto.UserID)
	assert.Equal(t, "2025-07-01", dto.StartDate)
	require.NotNil(t, dto.EndDate)
	assert.Equal(t, "2025-07-14", *dto.EndDate)
	assert.Equal(t, "2025-07-01 - 2025-07-14", dto.Display)
}

func TestCreateRange_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/ranges", map[string]any{})

	// Tag failures use the same JSON field names as domain validation.
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Contains(t, resp.Fields, "user_id")
	assert.Contains(t, resp.Fields, "vacation_status_id")
	assert.Contains(t, resp.Fields, "start_date")
}

func TestCreateRange_DomainValidation(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/ranges", rangeBody(10)).Code)

	// Same user, same dates: both endpoints are taken.
	w := env.do(t, http.MethodPost, "/api/ranges", rangeBody(10))

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "taken", resp.Fields["start_date"])
	assert.Equal(t, "taken", resp.Fields["end_date"])
}

func TestCreateRange_FractionalDuration(t *testing.T) {
	env := newTestEnv(t)

	body := rangeBody(10)
	body["duration"] = 2.5
	w := env.do(t, http.MethodPost, "/api/ranges", body)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "not_a_number", resp.Fields["duration"])
}

func TestCreateRange_PostSaveWarning(t *testing.T) {
	// GIVEN a transport that rejects batches and one overlapping item
	env := newTestEnv(t)
	env.rec.FailWith = assert.AnError
	env.mem.AddWorkItem(vacation.WorkItem{
		ID:         1,
		AuthorID:   10,
		AssigneeID: 20,
		StartDate:  vacation.NewDate(2025, time.July, 2),
		Open:       true,
	})

	// WHEN creating the range
	w := env.do(t, http.MethodPost, "/api/ranges", rangeBody(10))

	// THEN the save succeeded and the response carries a warning
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode[map[string]json.RawMessage](t, w)
	assert.Contains(t, resp, "range")
	assert.Contains(t, resp, "warning")
}

func TestUpdateRange(t *testing.T) {
	env := newTestEnv(t)
	created := decode[RangeDTO](t, env.do(t, http.MethodPost, "/api/ranges", rangeBody(10)))

	body := rangeBody(10)
	body["description"] = "moved"
	w := env.do(t, http.MethodPut, "/api/ranges/1", body)

	require.Equal(t, http.StatusOK, w.Code)
	dto := decode[RangeDTO](t, w)
	assert.Equal(t, created.ID, dto.ID)
	assert.Equal(t, "moved", dto.Description)
}

func TestUpdateRange_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/api/ranges/999", rangeBody(10))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRange_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/ranges/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRanges_Filters(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/ranges", rangeBody(10)).Code)
	other := rangeBody(11)
	other["vacation_status_id"] = 2
	other["start_date"] = "2025-08-01"
	other["end_date"] = "2025-08-05"
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/ranges", other).Code)

	w := env.do(t, http.MethodGet, "/api/ranges?planned=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	dtos := decode[[]RangeDTO](t, w)
	require.Len(t, dtos, 1)
	assert.Equal(t, int64(10), dtos[0].UserID)

	w = env.do(t, http.MethodGet, "/api/ranges?user_id=11&order=desc", nil)
	dtos = decode[[]RangeDTO](t, w)
	require.Len(t, dtos, 1)
	assert.Equal(t, int64(11), dtos[0].UserID)

	w = env.do(t, http.MethodGet, "/api/ranges?limit=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportRanges_Workbook(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/ranges", rangeBody(10)).Code)

	w := env.do(t, http.MethodGet, "/api/ranges/export", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	user, err := f.GetCellValue("Vacations", "B2")
	require.NoError(t, err)
	assert.Equal(t, "10", user)
}

// =============================================================================
// STATUSES
// =============================================================================

func TestStatuses_CreateAndList(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/statuses", map[string]any{
		"name": "Parental leave", "is_planned": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[StatusDTO](t, w)
	assert.Equal(t, "Parental leave", created.Name)

	w = env.do(t, http.MethodGet, "/api/statuses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	statuses := decode[[]StatusDTO](t, w)
	assert.Len(t, statuses, 3)
}

func TestCreateStatus_MissingName(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/statuses", map[string]any{"is_planned": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// USERS
// =============================================================================

func TestGetSummary_ResolvesRanges(t *testing.T) {
	env := newTestEnv(t)
	created := decode[RangeDTO](t, env.do(t, http.MethodPost, "/api/ranges", rangeBody(10)))

	w := env.do(t, http.MethodGet, "/api/users/10/summary", nil)

	require.Equal(t, http.StatusOK, w.Code)
	dto := decode[SummaryDTO](t, w)
	assert.Equal(t, int64(10), dto.UserID)
	require.NotNil(t, dto.ActivePlanned)
	assert.Equal(t, created.ID, dto.ActivePlanned.ID)
	assert.Nil(t, dto.LastPlanned)
	assert.Nil(t, dto.NotPlanned)
}

func TestGetSummary_NoSummary(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/users/99/summary", nil)

	require.Equal(t, http.StatusOK, w.Code)
	dto := decode[SummaryDTO](t, w)
	assert.Nil(t, dto.ActivePlanned)
}

func TestGetReport(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/ranges", rangeBody(10)).Code)

	w := env.do(t, http.MethodGet, "/api/users/10/report", nil)

	require.Equal(t, http.StatusOK, w.Code)
	report := decode[ReportDTO](t, w)
	assert.Equal(t, 1, report.PlannedCount)
	days := decimal.RequireFromString(report.PlannedDays)
	assert.True(t, days.Equal(decimal.NewFromInt(14)), "got %s", report.PlannedDays)
	avg := decimal.RequireFromString(report.AverageLength)
	assert.True(t, avg.Equal(decimal.NewFromInt(14)), "got %s", report.AverageLength)
}

func TestManagerEndpoints(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/ranges", rangeBody(10)).Code)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/ranges", rangeBody(20)).Code)
	env.mem.AssignManager(20, 10)

	w := env.do(t, http.MethodGet, "/api/users/20/manager", nil)
	require.Equal(t, http.StatusOK, w.Code)
	flag := decode[map[string]any](t, w)
	assert.Equal(t, true, flag["is_manager"])

	w = env.do(t, http.MethodGet, "/api/users/non-managers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string][]int64](t, w)
	assert.Equal(t, []int64{10}, body["user_ids"])
}
