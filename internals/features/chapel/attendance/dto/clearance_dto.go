package dto

import (
	"github.com/google/uuid"
)

/* =========================================================
 * REQUESTS
 * ========================================================= */

type ClearStudentRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	ServiceID uuid.UUID `json:"service_id" validate:"required"`
	Level     int       `json:"level"      validate:"required"`
	ReasonID  uuid.UUID `json:"reason_id"  validate:"required"`
	AdminID   uuid.UUID `json:"admin_id"   validate:"required"`
	Note      *string   `json:"note"       validate:"omitempty,max=500"`
}

type BatchClearRequest struct {
	StudentIDs []uuid.UUID `json:"student_ids" validate:"required,min=1,dive,required"`
	ServiceID  uuid.UUID   `json:"service_id"  validate:"required"`
	Level      int         `json:"level"       validate:"required"`
	ReasonID   uuid.UUID   `json:"reason_id"   validate:"required"`
	AdminID    uuid.UUID   `json:"admin_id"    validate:"required"`
	Note       *string     `json:"note"        validate:"omitempty,max=500"`
}

/* =========================================================
 * RESPONSES
 * ========================================================= */

type BatchClearError struct {
	StudentID uuid.UUID `json:"student_id"`
	Error     string    `json:"error"`
	Kind      string    `json:"kind"`
}

// BatchClearResult is always returned as a structured summary; batch clearance
// never aborts on the first failed student.
type BatchClearResult struct {
	Total      int               `json:"total"`
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
	Results    []uuid.UUID       `json:"results"` // override ids created
	Errors     []BatchClearError `json:"errors"`
}
