package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	UploadSessionStatusPending   = "pending"
	UploadSessionStatusConfirmed = "confirmed"
	UploadSessionStatusCancelled = "cancelled"
)

// UploadSessionModel coordinates one in-flight ingestion. Exactly one terminal
// transition per session: pending -> confirmed XOR pending -> cancelled.
// Terminal rows are kept (archived) for audit.
type UploadSessionModel struct {
	UploadSessionId uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:upload_session_id" json:"upload_session_id"`

	UploadSessionServiceId     uuid.UUID `gorm:"type:uuid;not null;column:upload_session_service_id"      json:"upload_session_service_id"`
	UploadSessionLevel         int       `gorm:"not null;column:upload_session_level"                     json:"upload_session_level"`
	UploadSessionUploaderId    uuid.UUID `gorm:"type:uuid;not null;column:upload_session_uploader_id"     json:"upload_session_uploader_id"`
	UploadSessionScanArchiveId uuid.UUID `gorm:"type:uuid;not null;column:upload_session_scan_archive_id" json:"upload_session_scan_archive_id"`

	// Preview computed once at open time; confirm replays it verbatim so the
	// admin commits exactly what they saw.
	UploadSessionPreview datatypes.JSON `gorm:"type:jsonb;not null;column:upload_session_preview" json:"upload_session_preview"`

	UploadSessionStatus string `gorm:"not null;default:pending;column:upload_session_status" json:"upload_session_status"`

	UploadSessionCreatedAt   time.Time  `gorm:"column:upload_session_created_at;autoCreateTime" json:"upload_session_created_at"`
	UploadSessionConfirmedAt *time.Time `gorm:"column:upload_session_confirmed_at"              json:"upload_session_confirmed_at,omitempty"`
	UploadSessionCancelledAt *time.Time `gorm:"column:upload_session_cancelled_at"              json:"upload_session_cancelled_at,omitempty"`
}

func (UploadSessionModel) TableName() string { return "chapel_upload_sessions" }

func (m *UploadSessionModel) IsPending() bool {
	return m.UploadSessionStatus == UploadSessionStatusPending
}
