package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ManualOverrideModel is one admin decision to clear a student's absence for a
// service. Append-only from the engine's perspective: the row is the
// authoritative audit fact, the JSON documents are derived views of it.
type ManualOverrideModel struct {
	ManualOverrideId uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:manual_override_id" json:"manual_override_id"`

	ManualOverrideStudentId uuid.UUID `gorm:"type:uuid;not null;column:manual_override_student_id" json:"manual_override_student_id"`
	ManualOverrideServiceId uuid.UUID `gorm:"type:uuid;not null;column:manual_override_service_id" json:"manual_override_service_id"`
	ManualOverrideLevel     int       `gorm:"not null;column:manual_override_level"                json:"manual_override_level"`
	ManualOverrideReasonId  uuid.UUID `gorm:"type:uuid;not null;column:manual_override_reason_id"  json:"manual_override_reason_id"`

	ManualOverrideNote    *string   `gorm:"column:manual_override_note"                        json:"manual_override_note,omitempty"`
	ManualOverrideAdminId uuid.UUID `gorm:"type:uuid;not null;column:manual_override_admin_id" json:"manual_override_admin_id"`

	ManualOverrideCreatedAt time.Time      `gorm:"column:manual_override_created_at;autoCreateTime" json:"manual_override_created_at"`
	ManualOverrideDeletedAt gorm.DeletedAt `gorm:"column:manual_override_deleted_at;index"          json:"manual_override_deleted_at,omitempty"`
}

func (ManualOverrideModel) TableName() string { return "chapel_manual_overrides" }
