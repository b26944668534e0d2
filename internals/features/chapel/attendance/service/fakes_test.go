package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"chapelku_backend/internals/features/chapel/attendance/model"
	"chapelku_backend/internals/features/chapel/registry"
	regmodel "chapelku_backend/internals/features/chapel/registry/model"
	osshelper "chapelku_backend/internals/helpers/oss"
)

/* ===================== in-memory document store ===================== */

type memDocStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  map[string]error // injected PutJSON failures by key
}

func newMemDocStore() *memDocStore {
	return &memDocStore{objects: map[string][]byte{}, putErr: map[string]error{}}
}

func (s *memDocStore) GetJSON(_ context.Context, key string, out interface{}) error {
	s.mu.Lock()
	raw, ok := s.objects[key]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", osshelper.ErrObjectNotFound, key)
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", osshelper.ErrObjectMalformed, key, err)
	}
	return nil
}

func (s *memDocStore) PutJSON(_ context.Context, key string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.putErr[key]; ok {
		return err
	}
	raw, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	s.objects[key] = raw
	return nil
}

func (s *memDocStore) CreateJSON(_ context.Context, key string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[key]; exists {
		return fmt.Errorf("%w: %s", osshelper.ErrObjectExists, key)
	}
	raw, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	s.objects[key] = raw
	return nil
}

func (s *memDocStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memDocStore) ListKeys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *memDocStore) putRaw(key string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = raw
}

// UploadStream satisfies ScanUploader.
func (s *memDocStore) UploadStream(_ context.Context, key string, r io.Reader, _ string) error {
	buf, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.putRaw(key, buf)
	return nil
}

/* ===================== fake registry ===================== */

type fakeRegistry struct {
	students map[uuid.UUID]*regmodel.StudentModel
	services map[uuid.UUID]*regmodel.ChapelServiceModel
	reasons  map[uuid.UUID]*regmodel.OverrideReasonModel
	admins   map[uuid.UUID]*regmodel.AdminModel
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		students: map[uuid.UUID]*regmodel.StudentModel{},
		services: map[uuid.UUID]*regmodel.ChapelServiceModel{},
		reasons:  map[uuid.UUID]*regmodel.OverrideReasonModel{},
		admins:   map[uuid.UUID]*regmodel.AdminModel{},
	}
}

func (r *fakeRegistry) FindStudentByID(_ context.Context, id uuid.UUID) (*regmodel.StudentModel, error) {
	if s, ok := r.students[id]; ok {
		return s, nil
	}
	return nil, registry.ErrNotFound
}

func (r *fakeRegistry) ListActiveStudentsByLevel(_ context.Context, level int) ([]regmodel.StudentModel, error) {
	var out []regmodel.StudentModel
	for _, s := range r.students {
		if s.StudentLevel == level && s.StudentActive {
			out = append(out, *s)
		}
	}
	// roster listing is matric-ordered in the real registry
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].StudentMatricNumber < out[i].StudentMatricNumber {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *fakeRegistry) FindServiceByID(_ context.Context, id uuid.UUID) (*regmodel.ChapelServiceModel, error) {
	if s, ok := r.services[id]; ok {
		return s, nil
	}
	return nil, registry.ErrNotFound
}

func (r *fakeRegistry) ListServicesByDate(_ context.Context, date time.Time) ([]regmodel.ChapelServiceModel, error) {
	var out []regmodel.ChapelServiceModel
	for _, s := range r.services {
		if s.ChapelServiceDate.Format("2006-01-02") == date.Format("2006-01-02") {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeRegistry) FindReasonByID(_ context.Context, id uuid.UUID) (*regmodel.OverrideReasonModel, error) {
	if m, ok := r.reasons[id]; ok {
		return m, nil
	}
	return nil, registry.ErrNotFound
}

func (r *fakeRegistry) FindAdminByID(_ context.Context, id uuid.UUID) (*regmodel.AdminModel, error) {
	if m, ok := r.admins[id]; ok {
		return m, nil
	}
	return nil, registry.ErrNotFound
}

/* ===================== fake relational repos ===================== */

type fakeSessionRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.UploadSessionModel
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{rows: map[uuid.UUID]*model.UploadSessionModel{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, m *model.UploadSessionModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.rows[m.UploadSessionId] = &cp
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.UploadSessionModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.rows[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, errRecordNotFound
}

func (r *fakeSessionRepo) Save(_ context.Context, m *model.UploadSessionModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.rows[m.UploadSessionId] = &cp
	return nil
}

type fakeArchiveRepo struct {
	rows []model.ScanArchiveModel
}

func (r *fakeArchiveRepo) Create(_ context.Context, m *model.ScanArchiveModel) error {
	r.rows = append(r.rows, *m)
	return nil
}

type fakeIssueRepo struct {
	rows map[uuid.UUID]*model.IssueModel
}

func newFakeIssueRepo() *fakeIssueRepo { return &fakeIssueRepo{rows: map[uuid.UUID]*model.IssueModel{}} }

func (r *fakeIssueRepo) Create(_ context.Context, m *model.IssueModel) error {
	cp := *m
	r.rows[m.IssueId] = &cp
	return nil
}

func (r *fakeIssueRepo) FindByID(_ context.Context, id uuid.UUID) (*model.IssueModel, error) {
	if m, ok := r.rows[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, errRecordNotFound
}

func (r *fakeIssueRepo) Save(_ context.Context, m *model.IssueModel) error {
	cp := *m
	r.rows[m.IssueId] = &cp
	return nil
}

type fakeVersionRepo struct {
	mu            sync.Mutex
	rows          []*model.AttendanceBatchVersionModel
	insertErr     error
	supersedeErr  error
	supersedeSkip bool // simulate a crash between the two commit steps
}

func (r *fakeVersionRepo) Current(_ context.Context, serviceID uuid.UUID, level int) (*model.AttendanceBatchVersionModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var current *model.AttendanceBatchVersionModel
	for _, m := range r.rows {
		if m.AttendanceBatchVersionServiceId != serviceID || m.AttendanceBatchVersionLevel != level {
			continue
		}
		if m.AttendanceBatchVersionSupersededBy != nil {
			continue
		}
		if current == nil || m.AttendanceBatchVersionNumber > current.AttendanceBatchVersionNumber {
			current = m
		}
	}
	if current == nil {
		return nil, nil
	}
	cp := *current
	return &cp, nil
}

func (r *fakeVersionRepo) Insert(_ context.Context, m *model.AttendanceBatchVersionModel) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *fakeVersionRepo) MarkSuperseded(_ context.Context, prevID, byID uuid.UUID) error {
	if r.supersedeErr != nil {
		return r.supersedeErr
	}
	if r.supersedeSkip {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.AttendanceBatchVersionId == prevID {
			id := byID
			m.AttendanceBatchVersionSupersededBy = &id
		}
	}
	return nil
}

type fakeOverrideRepo struct {
	mu        sync.Mutex
	rows      []model.ManualOverrideModel
	insertErr error
}

func (r *fakeOverrideRepo) Insert(_ context.Context, m *model.ManualOverrideModel) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ManualOverrideCreatedAt.IsZero() {
		m.ManualOverrideCreatedAt = time.Now().UTC()
	}
	r.rows = append(r.rows, *m)
	return nil
}

func (r *fakeOverrideRepo) ListByServiceLevel(_ context.Context, serviceID uuid.UUID, level int) ([]model.ManualOverrideModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ManualOverrideModel
	for _, m := range r.rows {
		if m.ManualOverrideServiceId == serviceID && m.ManualOverrideLevel == level {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeOverrideRepo) ListGroupsSince(_ context.Context, since time.Time) ([]OverrideGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var out []OverrideGroup
	for _, m := range r.rows {
		if m.ManualOverrideCreatedAt.Before(since) {
			continue
		}
		key := fmt.Sprintf("%s/%d", m.ManualOverrideServiceId, m.ManualOverrideLevel)
		if !seen[key] {
			seen[key] = true
			out = append(out, OverrideGroup{ServiceID: m.ManualOverrideServiceId, Level: m.ManualOverrideLevel})
		}
	}
	return out, nil
}

var errRecordNotFound = gorm.ErrRecordNotFound
