package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminModel struct {
	AdminId uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:admin_id" json:"admin_id"`

	AdminName  string `gorm:"not null;column:admin_name"             json:"admin_name"`
	AdminEmail string `gorm:"not null;uniqueIndex;column:admin_email" json:"admin_email"`

	AdminCreatedAt time.Time      `gorm:"column:admin_created_at;autoCreateTime" json:"admin_created_at"`
	AdminDeletedAt gorm.DeletedAt `gorm:"column:admin_deleted_at;index"          json:"admin_deleted_at,omitempty"`
}

func (AdminModel) TableName() string { return "admins" }
