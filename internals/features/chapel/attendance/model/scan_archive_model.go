package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScanArchiveModel keeps the raw uploaded scan file reference. The blob is
// stored verbatim in the object store; this row is never mutated, only
// soft-deleted.
type ScanArchiveModel struct {
	ScanArchiveId uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:scan_archive_id" json:"scan_archive_id"`

	ScanArchiveServiceId  uuid.UUID `gorm:"type:uuid;not null;column:scan_archive_service_id"  json:"scan_archive_service_id"`
	ScanArchiveLevel      int       `gorm:"not null;column:scan_archive_level"                 json:"scan_archive_level"`
	ScanArchiveUploaderId uuid.UUID `gorm:"type:uuid;not null;column:scan_archive_uploader_id" json:"scan_archive_uploader_id"`

	ScanArchiveObjectKey string `gorm:"not null;column:scan_archive_object_key" json:"scan_archive_object_key"`
	ScanArchiveMimeType  string `gorm:"not null;column:scan_archive_mime_type"  json:"scan_archive_mime_type"`

	ScanArchiveUploadedAt time.Time      `gorm:"column:scan_archive_uploaded_at;autoCreateTime" json:"scan_archive_uploaded_at"`
	ScanArchiveDeletedAt  gorm.DeletedAt `gorm:"column:scan_archive_deleted_at;index"           json:"scan_archive_deleted_at,omitempty"`
}

func (ScanArchiveModel) TableName() string { return "chapel_scan_archives" }
