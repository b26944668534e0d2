package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentModel struct {
	StudentId uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:student_id" json:"student_id"`

	StudentMatricNumber string `gorm:"not null;uniqueIndex;column:student_matric_number" json:"student_matric_number"`
	StudentName         string `gorm:"not null;column:student_name"                      json:"student_name"`
	StudentLevel        int    `gorm:"not null;column:student_level"                     json:"student_level"`
	StudentGender       string `gorm:"not null;column:student_gender"                    json:"student_gender"`
	StudentActive       bool   `gorm:"not null;default:true;column:student_active"       json:"student_active"`

	StudentCreatedAt time.Time      `gorm:"column:student_created_at;autoCreateTime" json:"student_created_at"`
	StudentUpdatedAt *time.Time     `gorm:"column:student_updated_at;autoUpdateTime" json:"student_updated_at,omitempty"`
	StudentDeletedAt gorm.DeletedAt `gorm:"column:student_deleted_at;index"          json:"student_deleted_at,omitempty"`
}

func (StudentModel) TableName() string { return "students" }
