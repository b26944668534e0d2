package dto

import (
	"time"

	"github.com/google/uuid"
)

/* =========================================================
 * PREVIEW (computed at open, replayed at confirm)
 * ========================================================= */

type UnmatchedRow struct {
	Row    map[string]string `json:"row"`
	Reason string            `json:"reason"` // no_roster_entry | ambiguous_identifier | malformed_row
}

type PreviewSummary struct {
	MatchedCount   int `json:"matched_count"`
	UnmatchedCount int `json:"unmatched_count"`
	AbsentCount    int `json:"absent_count"`
	RosterCount    int `json:"roster_count"`
}

type UploadPreview struct {
	Matched   []AbsenteeRecord `json:"matched"`
	Unmatched []UnmatchedRow   `json:"unmatched"`
	Absent    []AbsenteeRecord `json:"absent"`
	Summary   PreviewSummary   `json:"summary"`
}

/* =========================================================
 * REQUESTS
 * ========================================================= */

// Open (multipart: file field "file" + these form values)
type OpenUploadRequest struct {
	ServiceID  uuid.UUID `form:"service_id"  validate:"required"`
	Level      int       `form:"level"       validate:"required"`
	UploaderID uuid.UUID `form:"uploader_id" validate:"required"`
}

type ConfirmUploadRequest struct {
	AdminID uuid.UUID `json:"admin_id" validate:"required"`
}

/* =========================================================
 * RESPONSES
 * ========================================================= */

type UploadSessionResponse struct {
	UploadSessionID uuid.UUID      `json:"upload_session_id"`
	ServiceID       uuid.UUID      `json:"service_id"`
	Level           int            `json:"level"`
	UploaderID      uuid.UUID      `json:"uploader_id"`
	ScanArchiveID   uuid.UUID      `json:"scan_archive_id"`
	Status          string         `json:"status"`
	Preview         *UploadPreview `json:"preview,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	ConfirmedAt     *time.Time     `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time     `json:"cancelled_at,omitempty"`
}

type BatchVersionResponse struct {
	BatchVersionID uuid.UUID        `json:"batch_version_id"`
	ServiceID      uuid.UUID        `json:"service_id"`
	Level          int              `json:"level"`
	Version        int              `json:"version"`
	Attendees      []AbsenteeRecord `json:"attendees"`
	Absentees      []AbsenteeRecord `json:"absentees"`
	Unmatched      []UnmatchedRow   `json:"unmatched"`
	AdminID        uuid.UUID        `json:"admin_id"`
	SupersededBy   *uuid.UUID       `json:"superseded_by,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}
