package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	IssueKindUnmatchedRow = "unmatched_row"
	IssueKindParseFailure = "parse_failure"
)

// IssueModel logs a reconciliation problem (unmatched scan row, parse
// failure) for later manual review.
type IssueModel struct {
	IssueId uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:issue_id" json:"issue_id"`

	IssueServiceId      uuid.UUID  `gorm:"type:uuid;not null;column:issue_service_id"   json:"issue_service_id"`
	IssueLevel          int        `gorm:"not null;column:issue_level"                  json:"issue_level"`
	IssueBatchVersionId *uuid.UUID `gorm:"type:uuid;column:issue_batch_version_id"      json:"issue_batch_version_id,omitempty"`

	IssueKind   string         `gorm:"not null;column:issue_kind"          json:"issue_kind"`
	IssueDetail datatypes.JSON `gorm:"type:jsonb;column:issue_detail"      json:"issue_detail,omitempty"`

	IssueResolved   bool       `gorm:"not null;default:false;column:issue_resolved" json:"issue_resolved"`
	IssueResolvedBy *uuid.UUID `gorm:"type:uuid;column:issue_resolved_by"           json:"issue_resolved_by,omitempty"`
	IssueResolvedAt *time.Time `gorm:"column:issue_resolved_at"                     json:"issue_resolved_at,omitempty"`

	IssueCreatedAt time.Time `gorm:"column:issue_created_at;autoCreateTime" json:"issue_created_at"`
}

func (IssueModel) TableName() string { return "chapel_issues" }
