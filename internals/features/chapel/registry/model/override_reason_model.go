package model

import (
	"time"

	"github.com/google/uuid"
)

// OverrideReasonModel is the catalogue of valid clearance reasons
// (exeat, medical, official duty, ...).
type OverrideReasonModel struct {
	OverrideReasonId uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:override_reason_id" json:"override_reason_id"`

	OverrideReasonCode         string `gorm:"not null;uniqueIndex;column:override_reason_code"        json:"override_reason_code"`
	OverrideReasonLabel        string `gorm:"not null;column:override_reason_label"                   json:"override_reason_label"`
	OverrideReasonRequiresNote bool   `gorm:"not null;default:false;column:override_reason_requires_note" json:"override_reason_requires_note"`

	OverrideReasonCreatedAt time.Time `gorm:"column:override_reason_created_at;autoCreateTime" json:"override_reason_created_at"`
}

func (OverrideReasonModel) TableName() string { return "override_reasons" }
