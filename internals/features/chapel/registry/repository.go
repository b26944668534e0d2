// Narrow lookup collaborators over the external registries (students, chapel
// services, override reasons, admins). The ingestion engine only ever needs
// find-by-id and one roster listing; anything richer lives with the owning
// subsystem.
package registry

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"chapelku_backend/internals/features/chapel/registry/model"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("registry: not found")

type Registry struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Registry { return &Registry{DB: db} }

func (r *Registry) FindStudentByID(ctx context.Context, id uuid.UUID) (*model.StudentModel, error) {
	var m model.StudentModel
	if err := r.DB.WithContext(ctx).First(&m, "student_id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &m, nil
}

// ListActiveStudentsByLevel returns the roster for one level, ordered by
// matric number so matcher output is stable.
func (r *Registry) ListActiveStudentsByLevel(ctx context.Context, level int) ([]model.StudentModel, error) {
	var ms []model.StudentModel
	err := r.DB.WithContext(ctx).
		Where("student_level = ? AND student_active = TRUE", level).
		Order("student_matric_number ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return ms, nil
}

func (r *Registry) FindServiceByID(ctx context.Context, id uuid.UUID) (*model.ChapelServiceModel, error) {
	var m model.ChapelServiceModel
	if err := r.DB.WithContext(ctx).First(&m, "chapel_service_id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &m, nil
}

func (r *Registry) ListServicesByDate(ctx context.Context, date time.Time) ([]model.ChapelServiceModel, error) {
	var ms []model.ChapelServiceModel
	err := r.DB.WithContext(ctx).
		Where("chapel_service_date = ?", date.Format("2006-01-02")).
		Order("chapel_service_name ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return ms, nil
}

func (r *Registry) FindReasonByID(ctx context.Context, id uuid.UUID) (*model.OverrideReasonModel, error) {
	var m model.OverrideReasonModel
	if err := r.DB.WithContext(ctx).First(&m, "override_reason_id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &m, nil
}

func (r *Registry) FindAdminByID(ctx context.Context, id uuid.UUID) (*model.AdminModel, error) {
	var m model.AdminModel
	if err := r.DB.WithContext(ctx).First(&m, "admin_id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &m, nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
