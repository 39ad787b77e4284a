/*
handlers.go - HTTP API handlers for the vacation engine

PURPOSE:
  Exposes the vacation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Ranges:
    GET    /api/ranges            List ranges (filters: user_id,
                                  vacation_status_id, planned, period,
                                  period_field, order, limit)
    POST   /api/ranges            Create a range
    GET    /api/ranges/{id}       Get a range
    PUT    /api/ranges/{id}       Update a range
    GET    /api/ranges/export     Download the listing as .xlsx

  Statuses:
    GET    /api/statuses          List statuses
    POST   /api/statuses          Create a status

  Users:
    GET    /api/users/{id}/summary   Current vacation summary
    GET    /api/users/{id}/report    Leave statistics
    GET    /api/users/{id}/manager   Vacation manager capability
    GET    /api/users/non-managers   Users managing nobody

ERROR HANDLING:
  - 400: Validation errors (field-scoped in "fields"), bad input
  - 404: Missing range/status
  - 500: Store failures
  A post-save failure (summary or dispatch) does NOT fail the request:
  the save already succeeded, so the saved range is returned with a
  warning and the failure is logged for alerting.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/warp/vacation-engine/export"
	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *vacation.Service
	Store     vacation.Store
	Directory vacation.ManagerDirectory
	Logger    *logrus.Logger

	validate *validator.Validate
}

// NewHandler creates a new handler around the mutation service.
func NewHandler(svc *vacation.Service, store vacation.Store, dir vacation.ManagerDirectory, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}

	validate := validator.New()
	// Key tag failures by JSON name, so both validation layers report
	// the same field identifiers.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		Service:   svc,
		Store:     store,
		Directory: dir,
		Logger:    logger,
		validate:  validate,
	}
}

// =============================================================================
// RANGE HANDLERS
// =============================================================================

// CreateRange creates a vacation range and runs the post-save pipeline.
func (h *Handler) CreateRange(w http.ResponseWriter, r *http.Request) {
	in, ok := h.bindRange(w, r)
	if !ok {
		return
	}

	rng, err := h.Service.CreateRange(r.Context(), in)
	h.writeSaveResult(w, rng, err, http.StatusCreated)
}

// UpdateRange updates an existing range and runs the post-save pipeline.
func (h *Handler) UpdateRange(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	in, ok := h.bindRange(w, r)
	if !ok {
		return
	}

	rng, err := h.Service.UpdateRange(r.Context(), vacation.RangeID(id), in)
	h.writeSaveResult(w, rng, err, http.StatusOK)
}

func (h *Handler) bindRange(w http.ResponseWriter, r *http.Request) (vacation.RangeInput, bool) {
	var req RangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return vacation.RangeInput{}, false
	}
	if err := h.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "Validation failed",
			Fields: tagFields(err),
		})
		return vacation.RangeInput{}, false
	}

	in, err := req.ToInput()
	if err != nil {
		writeValidationError(w, err)
		return vacation.RangeInput{}, false
	}
	return in, true
}

// writeSaveResult maps the mutation pipeline outcome onto HTTP. The
// saved range is returned even when a post-save step failed.
func (h *Handler) writeSaveResult(w http.ResponseWriter, rng *vacation.VacationRange, err error, okStatus int) {
	switch {
	case err == nil:
		writeJSON(w, okStatus, rangeDTO(rng))
	case vacation.IsPostSaveError(err):
		writeJSON(w, okStatus, map[string]any{
			"range":   rangeDTO(rng),
			"warning": err.Error(),
		})
	case vacation.IsClientError(err):
		writeValidationError(w, err)
	case vacation.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Range not found", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to save range", err)
	}
}

// GetRange returns a single range.
func (h *Handler) GetRange(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	rng, err := h.Store.FindRange(r.Context(), vacation.RangeID(id))
	if errors.Is(err, vacation.ErrRangeNotFound) {
		writeError(w, http.StatusNotFound, "Range not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get range", err)
		return
	}
	writeJSON(w, http.StatusOK, rangeDTO(rng))
}

// ListRanges lists ranges with the query-string filters.
func (h *Handler) ListRanges(w http.ResponseWriter, r *http.Request) {
	q, ok := h.queryFromRequest(w, r)
	if !ok {
		return
	}

	ranges, err := h.Store.FindRanges(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list ranges", err)
		return
	}

	dtos := make([]RangeDTO, len(ranges))
	for i := range ranges {
		dtos[i] = rangeDTO(&ranges[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ExportRanges streams the filtered listing as an .xlsx workbook.
func (h *Handler) ExportRanges(w http.ResponseWriter, r *http.Request) {
	q, ok := h.queryFromRequest(w, r)
	if !ok {
		return
	}

	ranges, err := h.Store.FindRanges(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list ranges", err)
		return
	}
	statuses, err := h.Store.ListStatuses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list statuses", err)
		return
	}

	byID := make(map[vacation.StatusID]vacation.VacationStatus, len(statuses))
	for _, st := range statuses {
		byID[st.ID] = st
	}

	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="vacations.xlsx"`)
	if err := export.WriteRanges(w, ranges, byID); err != nil {
		h.Logger.WithError(err).Error("xlsx export failed")
	}
}

// queryFromRequest builds a RangeQuery from the query string.
func (h *Handler) queryFromRequest(w http.ResponseWriter, r *http.Request) (vacation.RangeQuery, bool) {
	var q vacation.RangeQuery
	params := r.URL.Query()

	if v := params.Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid user_id", err)
			return q, false
		}
		uid := vacation.UserID(id)
		q.UserID = &uid
	}
	if v := params.Get("vacation_status_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid vacation_status_id", err)
			return q, false
		}
		sid := vacation.StatusID(id)
		q.StatusID = &sid
	}
	if v := params.Get("planned"); v != "" {
		planned, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid planned flag", err)
			return q, false
		}
		q.Planned = &planned
	}
	if v := params.Get("period"); v != "" {
		q.Bucket = vacation.Bucket(v, vacation.Today())
		if params.Get("period_field") == string(vacation.FieldEndDate) {
			q.BucketField = vacation.FieldEndDate
		}
	}
	if params.Get("order") == "desc" {
		q.Order = vacation.OrderDesc
	}
	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return q, false
		}
		q.Limit = limit
	}
	return q, true
}

// =============================================================================
// STATUS HANDLERS
// =============================================================================

func (h *Handler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.Store.ListStatuses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list statuses", err)
		return
	}

	dtos := make([]StatusDTO, len(statuses))
	for i, st := range statuses {
		dtos[i] = StatusDTO{ID: int64(st.ID), Name: st.Name, IsPlanned: st.IsPlanned}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	var req CreateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "Validation failed",
			Fields: tagFields(err),
		})
		return
	}

	st := &vacation.VacationStatus{Name: req.Name, IsPlanned: req.IsPlanned}
	if err := h.Store.SaveStatus(r.Context(), st); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save status", err)
		return
	}
	writeJSON(w, http.StatusCreated, StatusDTO{
		ID: int64(st.ID), Name: st.Name, IsPlanned: st.IsPlanned,
	})
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// GetSummary returns the user's current vacation summary with the
// referenced ranges resolved.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	user := vacation.UserID(id)

	summary, err := h.Store.Summary(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get summary", err)
		return
	}

	dto := SummaryDTO{UserID: id}
	if summary != nil {
		if dto.ActivePlanned, err = h.resolveRange(r, summary.ActivePlanned); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to resolve summary", err)
			return
		}
		if dto.LastPlanned, err = h.resolveRange(r, summary.LastPlanned); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to resolve summary", err)
			return
		}
		if dto.NotPlanned, err = h.resolveRange(r, summary.NotPlanned); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to resolve summary", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) resolveRange(r *http.Request, id *vacation.RangeID) (*RangeDTO, error) {
	if id == nil {
		return nil, nil
	}
	rng, err := h.Store.FindRange(r.Context(), *id)
	if errors.Is(err, vacation.ErrRangeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	dto := rangeDTO(rng)
	return &dto, nil
}

// GetReport returns leave statistics for the user.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	report, err := vacation.BuildUserReport(r.Context(), h.Store, vacation.UserID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	writeJSON(w, http.StatusOK, ReportDTO{
		UserID:          id,
		PlannedCount:    report.PlannedCount,
		PlannedDays:     report.PlannedDays.String(),
		AverageLength:   report.AverageLength.String(),
		NotPlannedCount: report.NotPlannedCount,
		NotPlannedDays:  report.NotPlannedDays.String(),
	})
}

// GetManagerFlag reports whether the user is a vacation manager.
func (h *Handler) GetManagerFlag(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	isManager, err := h.Directory.IsManager(r.Context(), vacation.UserID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check manager role", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":    id,
		"is_manager": isManager,
	})
}

// ListNonManagers returns the users who manage nobody.
func (h *Handler) ListNonManagers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Directory.NonManagers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list non-managers", err)
		return
	}

	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = int64(u)
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_ids": ids})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeValidationError renders domain validation errors per field.
func writeValidationError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: "Validation failed", Details: err.Error()}

	var verrs vacation.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Fields = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			resp.Fields[fe.Field] = fe.Code
		}
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// tagFields flattens validator tag failures into field -> code.
func tagFields(err error) map[string]string {
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = fmt.Sprintf("failed %q", fe.Tag())
		}
	}
	return fields
}
