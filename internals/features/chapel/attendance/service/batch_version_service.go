package service

import (
	"context"
	"log"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"chapelku_backend/internals/features/chapel/attendance/dto"
	"chapelku_backend/internals/features/chapel/attendance/model"
)

// BatchVersionService persists confirmed reconciliations as an immutable,
// superseding chain of versions per (service, level).
type BatchVersionService struct {
	Versions VersionRepo
}

func NewBatchVersionService(repo VersionRepo) *BatchVersionService {
	return &BatchVersionService{Versions: repo}
}

// Commit appends a new version for (serviceID, level). Two-step write: insert
// the new version, then point the previous version's superseded_by at it. The
// steps are not atomic; a crash in between leaves two rows with a NULL
// pointer, which Current() resolves by always taking the highest version
// number. Double-confirm protection is the upload session's terminal-state
// invariant, not re-checked here.
func (s *BatchVersionService) Commit(
	ctx context.Context,
	serviceID uuid.UUID,
	level int,
	matched, absent []dto.AbsenteeRecord,
	unmatched []dto.UnmatchedRow,
	adminID uuid.UUID,
) (*model.AttendanceBatchVersionModel, error) {
	prev, err := s.Versions.Current(ctx, serviceID, level)
	if err != nil {
		return nil, err
	}

	next := 1
	if prev != nil {
		next = prev.AttendanceBatchVersionNumber + 1
	}

	m := &model.AttendanceBatchVersionModel{
		AttendanceBatchVersionId:        uuid.New(),
		AttendanceBatchVersionServiceId: serviceID,
		AttendanceBatchVersionLevel:     level,
		AttendanceBatchVersionNumber:    next,
		AttendanceBatchVersionAttendees: mustJSON(matched),
		AttendanceBatchVersionAbsentees: mustJSON(absent),
		AttendanceBatchVersionUnmatched: mustJSON(unmatched),
		AttendanceBatchVersionAdminId:   adminID,
	}
	if err := s.Versions.Insert(ctx, m); err != nil {
		return nil, err
	}

	if prev != nil {
		if err := s.Versions.MarkSuperseded(ctx, prev.AttendanceBatchVersionId, m.AttendanceBatchVersionId); err != nil {
			// Tolerated: the commit itself succeeded and Current() ignores
			// the stale pointer on the next read.
			log.Printf("[VERSIONS] warn: supersede mark failed for %s v%d: %v",
				prev.AttendanceBatchVersionId, prev.AttendanceBatchVersionNumber, err)
		}
	}
	return m, nil
}

// CurrentFor exposes the live version for a pair, if any.
func (s *BatchVersionService) CurrentFor(ctx context.Context, serviceID uuid.UUID, level int) (*model.AttendanceBatchVersionModel, error) {
	return s.Versions.Current(ctx, serviceID, level)
}

func mustJSON(v interface{}) datatypes.JSON {
	raw, err := sonic.Marshal(v)
	if err != nil {
		// only reachable with unmarshalable values, which these DTOs are not
		return datatypes.JSON("null")
	}
	return datatypes.JSON(raw)
}
