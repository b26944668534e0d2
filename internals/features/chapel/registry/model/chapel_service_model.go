package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChapelServiceModel is a scheduled chapel event. Owned by the scheduling
// subsystem; the ingestion engine treats rows as immutable context.
type ChapelServiceModel struct {
	ChapelServiceId uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:chapel_service_id" json:"chapel_service_id"`

	ChapelServiceName   string                   `gorm:"not null;column:chapel_service_name"          json:"chapel_service_name"`
	ChapelServiceDate   time.Time                `gorm:"type:date;not null;column:chapel_service_date" json:"chapel_service_date"`
	ChapelServiceLevels datatypes.JSONSlice[int] `gorm:"not null;column:chapel_service_levels"        json:"chapel_service_levels"`

	ChapelServiceCreatedAt time.Time      `gorm:"column:chapel_service_created_at;autoCreateTime" json:"chapel_service_created_at"`
	ChapelServiceDeletedAt gorm.DeletedAt `gorm:"column:chapel_service_deleted_at;index"          json:"chapel_service_deleted_at,omitempty"`
}

func (ChapelServiceModel) TableName() string { return "chapel_services" }

func (m *ChapelServiceModel) AppliesToLevel(level int) bool {
	for _, l := range m.ChapelServiceLevels {
		if l == level {
			return true
		}
	}
	return false
}
