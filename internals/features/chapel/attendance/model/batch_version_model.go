package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AttendanceBatchVersionModel is one confirmed reconciliation for a
// (service, level) pair. Rows are append-only: never edited, never deleted,
// only superseded by a later version.
//
// The "current" version is the row with the highest version number and a NULL
// superseded_by pointer. The two-step commit (insert new, mark previous) is
// not atomic, so current-version lookups must not rely on the pointer alone.
type AttendanceBatchVersionModel struct {
	AttendanceBatchVersionId uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:attendance_batch_version_id" json:"attendance_batch_version_id"`

	AttendanceBatchVersionServiceId uuid.UUID `gorm:"type:uuid;not null;index:idx_abv_service_level;column:attendance_batch_version_service_id" json:"attendance_batch_version_service_id"`
	AttendanceBatchVersionLevel     int       `gorm:"not null;index:idx_abv_service_level;column:attendance_batch_version_level"                json:"attendance_batch_version_level"`
	AttendanceBatchVersionNumber    int       `gorm:"not null;column:attendance_batch_version_number"                                           json:"attendance_batch_version_number"`

	AttendanceBatchVersionAttendees datatypes.JSON `gorm:"type:jsonb;not null;column:attendance_batch_version_attendees" json:"attendance_batch_version_attendees"`
	AttendanceBatchVersionAbsentees datatypes.JSON `gorm:"type:jsonb;not null;column:attendance_batch_version_absentees" json:"attendance_batch_version_absentees"`
	AttendanceBatchVersionUnmatched datatypes.JSON `gorm:"type:jsonb;not null;column:attendance_batch_version_unmatched" json:"attendance_batch_version_unmatched"`

	AttendanceBatchVersionAdminId      uuid.UUID  `gorm:"type:uuid;not null;column:attendance_batch_version_admin_id"  json:"attendance_batch_version_admin_id"`
	AttendanceBatchVersionSupersededBy *uuid.UUID `gorm:"type:uuid;column:attendance_batch_version_superseded_by"      json:"attendance_batch_version_superseded_by,omitempty"`

	AttendanceBatchVersionCreatedAt time.Time `gorm:"column:attendance_batch_version_created_at;autoCreateTime" json:"attendance_batch_version_created_at"`
}

func (AttendanceBatchVersionModel) TableName() string { return "chapel_attendance_batch_versions" }
