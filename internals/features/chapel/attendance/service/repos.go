package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chapelku_backend/internals/features/chapel/attendance/model"
	regmodel "chapelku_backend/internals/features/chapel/registry/model"
)

/* =========================================================
 * External lookup collaborators (registry side)
 * ========================================================= */

type StudentLookup interface {
	FindStudentByID(ctx context.Context, id uuid.UUID) (*regmodel.StudentModel, error)
	ListActiveStudentsByLevel(ctx context.Context, level int) ([]regmodel.StudentModel, error)
}

type ServiceLookup interface {
	FindServiceByID(ctx context.Context, id uuid.UUID) (*regmodel.ChapelServiceModel, error)
	ListServicesByDate(ctx context.Context, date time.Time) ([]regmodel.ChapelServiceModel, error)
}

type ReasonLookup interface {
	FindReasonByID(ctx context.Context, id uuid.UUID) (*regmodel.OverrideReasonModel, error)
}

type AdminLookup interface {
	FindAdminByID(ctx context.Context, id uuid.UUID) (*regmodel.AdminModel, error)
}

/* =========================================================
 * Relational repositories (owned rows)
 * ========================================================= */

type SessionRepo interface {
	Create(ctx context.Context, m *model.UploadSessionModel) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.UploadSessionModel, error)
	Save(ctx context.Context, m *model.UploadSessionModel) error
}

type ArchiveRepo interface {
	Create(ctx context.Context, m *model.ScanArchiveModel) error
}

type IssueRepo interface {
	Create(ctx context.Context, m *model.IssueModel) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.IssueModel, error)
	Save(ctx context.Context, m *model.IssueModel) error
}

type VersionRepo interface {
	// Current returns the live version: no superseded_by pointer, highest
	// version number. (nil, nil) when the pair has no versions yet.
	Current(ctx context.Context, serviceID uuid.UUID, level int) (*model.AttendanceBatchVersionModel, error)
	Insert(ctx context.Context, m *model.AttendanceBatchVersionModel) error
	MarkSuperseded(ctx context.Context, prevID, byID uuid.UUID) error
}

type OverrideRepo interface {
	Insert(ctx context.Context, m *model.ManualOverrideModel) error
	ListByServiceLevel(ctx context.Context, serviceID uuid.UUID, level int) ([]model.ManualOverrideModel, error)
	// ListGroupsSince returns the distinct (service, level) pairs that
	// received overrides after since. Used by the drift reaper.
	ListGroupsSince(ctx context.Context, since time.Time) ([]OverrideGroup, error)
}

type OverrideGroup struct {
	ServiceID uuid.UUID `gorm:"column:manual_override_service_id"`
	Level     int       `gorm:"column:manual_override_level"`
}

/* =========================================================
 * GORM implementation
 * ========================================================= */

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

func (s *GormStore) Create(ctx context.Context, m *model.UploadSessionModel) error {
	return s.DB.WithContext(ctx).Create(m).Error
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*model.UploadSessionModel, error) {
	var m model.UploadSessionModel
	if err := s.DB.WithContext(ctx).First(&m, "upload_session_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *GormStore) Save(ctx context.Context, m *model.UploadSessionModel) error {
	return s.DB.WithContext(ctx).Save(m).Error
}

// sessions / archives / issues share the one store struct; GORM dispatches on
// the model type.

type gormArchives struct{ db *gorm.DB }

func (s *GormStore) Archives() ArchiveRepo { return &gormArchives{db: s.DB} }

func (a *gormArchives) Create(ctx context.Context, m *model.ScanArchiveModel) error {
	return a.db.WithContext(ctx).Create(m).Error
}

type gormIssues struct{ db *gorm.DB }

func (s *GormStore) Issues() IssueRepo { return &gormIssues{db: s.DB} }

func (i *gormIssues) Create(ctx context.Context, m *model.IssueModel) error {
	return i.db.WithContext(ctx).Create(m).Error
}

func (i *gormIssues) FindByID(ctx context.Context, id uuid.UUID) (*model.IssueModel, error) {
	var m model.IssueModel
	if err := i.db.WithContext(ctx).First(&m, "issue_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (i *gormIssues) Save(ctx context.Context, m *model.IssueModel) error {
	return i.db.WithContext(ctx).Save(m).Error
}

type gormVersions struct{ db *gorm.DB }

func (s *GormStore) Versions() VersionRepo { return &gormVersions{db: s.DB} }

func (v *gormVersions) Current(ctx context.Context, serviceID uuid.UUID, level int) (*model.AttendanceBatchVersionModel, error) {
	var m model.AttendanceBatchVersionModel
	err := v.db.WithContext(ctx).
		Where("attendance_batch_version_service_id = ? AND attendance_batch_version_level = ? AND attendance_batch_version_superseded_by IS NULL", serviceID, level).
		Order("attendance_batch_version_number DESC").
		First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (v *gormVersions) Insert(ctx context.Context, m *model.AttendanceBatchVersionModel) error {
	return v.db.WithContext(ctx).Create(m).Error
}

func (v *gormVersions) MarkSuperseded(ctx context.Context, prevID, byID uuid.UUID) error {
	return v.db.WithContext(ctx).
		Model(&model.AttendanceBatchVersionModel{}).
		Where("attendance_batch_version_id = ?", prevID).
		Update("attendance_batch_version_superseded_by", byID).Error
}

type gormOverrides struct{ db *gorm.DB }

func (s *GormStore) Overrides() OverrideRepo { return &gormOverrides{db: s.DB} }

func (o *gormOverrides) Insert(ctx context.Context, m *model.ManualOverrideModel) error {
	return o.db.WithContext(ctx).Create(m).Error
}

func (o *gormOverrides) ListByServiceLevel(ctx context.Context, serviceID uuid.UUID, level int) ([]model.ManualOverrideModel, error) {
	var ms []model.ManualOverrideModel
	err := o.db.WithContext(ctx).
		Where("manual_override_service_id = ? AND manual_override_level = ?", serviceID, level).
		Order("manual_override_created_at ASC").
		Find(&ms).Error
	return ms, err
}

func (o *gormOverrides) ListGroupsSince(ctx context.Context, since time.Time) ([]OverrideGroup, error) {
	var groups []OverrideGroup
	err := o.db.WithContext(ctx).
		Model(&model.ManualOverrideModel{}).
		Distinct("manual_override_service_id", "manual_override_level").
		Where("manual_override_created_at >= ?", since).
		Find(&groups).Error
	return groups, err
}
