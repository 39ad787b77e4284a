/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Surface-level checks (required fields, date format, integral
  duration) run here via go-playground/validator struct tags plus the
  duration integrality check. Domain rules - per-user uniqueness, end
  before start - stay in the vacation package; both produce the same
  field-scoped error shape.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"math"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// RangeRequest is the create/update payload for a vacation range.
// Duration is declared as a float so a fractional value can be
// rejected with a field error instead of a generic JSON decode error.
type RangeRequest struct {
	UserID      int64    `json:"user_id" validate:"required"`
	StatusID    int64    `json:"vacation_status_id" validate:"required"`
	StartDate   string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     *string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Duration    *float64 `json:"duration"`
	Description string   `json:"description"`
}

// ToInput converts the payload into a domain input. Validation tags
// guarantee the dates parse.
func (req *RangeRequest) ToInput() (vacation.RangeInput, error) {
	in := vacation.RangeInput{
		UserID:      vacation.UserID(req.UserID),
		StatusID:    vacation.StatusID(req.StatusID),
		Description: req.Description,
	}

	start, err := vacation.ParseDate(req.StartDate)
	if err != nil {
		return in, err
	}
	in.StartDate = start

	if req.EndDate != nil {
		end, err := vacation.ParseDate(*req.EndDate)
		if err != nil {
			return in, err
		}
		in.EndDate = &end
	}

	if req.Duration != nil {
		if *req.Duration != math.Trunc(*req.Duration) {
			return in, vacation.ValidationErrors{
				{Field: "duration", Code: vacation.CodeNotANumber},
			}
		}
		d := int(*req.Duration)
		in.Duration = &d
	}
	return in, nil
}

// CreateStatusRequest is the payload for a new vacation status.
type CreateStatusRequest struct {
	Name      string `json:"name" validate:"required"`
	IsPlanned bool   `json:"is_planned"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type RangeDTO struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	StatusID    int64   `json:"vacation_status_id"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date,omitempty"`
	Duration    *int    `json:"duration,omitempty"`
	Description string  `json:"description,omitempty"`
	Display     string  `json:"display"`
}

func rangeDTO(r *vacation.VacationRange) RangeDTO {
	dto := RangeDTO{
		ID:          int64(r.ID),
		UserID:      int64(r.UserID),
		StatusID:    int64(r.StatusID),
		StartDate:   r.StartDate.String(),
		Duration:    r.Duration,
		Description: r.Description,
		Display:     r.String(),
	}
	if r.EndDate != nil {
		s := r.EndDate.String()
		dto.EndDate = &s
	}
	return dto
}

type StatusDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IsPlanned bool   `json:"is_planned"`
}

type SummaryDTO struct {
	UserID        int64     `json:"user_id"`
	ActivePlanned *RangeDTO `json:"active_planned_vacation,omitempty"`
	LastPlanned   *RangeDTO `json:"last_planned_vacation,omitempty"`
	NotPlanned    *RangeDTO `json:"not_planned_vacation,omitempty"`
}

type ReportDTO struct {
	UserID          int64  `json:"user_id"`
	PlannedCount    int    `json:"planned_count"`
	PlannedDays     string `json:"planned_days"`
	AverageLength   string `json:"average_length"`
	NotPlannedCount int    `json:"not_planned_count"`
	NotPlannedDays  string `json:"not_planned_days"`
}

// ErrorResponse carries an operational error, or field-scoped
// validation errors the UI can present per field.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
