package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"chapelku_backend/internals/constants"
	"chapelku_backend/internals/features/chapel/attendance/dto"
	"chapelku_backend/internals/features/chapel/attendance/model"
	"chapelku_backend/internals/features/chapel/registry"
	regmodel "chapelku_backend/internals/features/chapel/registry/model"
	osshelper "chapelku_backend/internals/helpers/oss"
)

// lockAttempts / lockBackoff bound the retry of the document-update step when
// the per-directory lock marker is contended. Retries are bounded by attempt
// count, not wall clock.
var (
	lockAttempts = 3
	lockBackoff  = []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
)

// ClearanceService is the override-and-reconcile protocol: record a
// ManualOverride row, then rewrite absentees.json and manually_cleared.json
// under a lock marker so the derived documents track the override table.
type ClearanceService struct {
	Students  StudentLookup
	Services  ServiceLookup
	Reasons   ReasonLookup
	Admins    AdminLookup
	Overrides OverrideRepo
	Docs      DocumentStore

	// Sleep is swapped out in tests; nil means time.Sleep.
	Sleep func(time.Duration)
}

func NewClearanceService(reg *registry.Registry, overrides OverrideRepo, docs DocumentStore) *ClearanceService {
	return &ClearanceService{
		Students:  reg,
		Services:  reg,
		Reasons:   reg,
		Admins:    reg,
		Overrides: overrides,
		Docs:      docs,
	}
}

/* ===================== SINGLE CLEARANCE ===================== */

// ClearStudent validates everything up front (read-only, concurrent), inserts
// the override row, then updates the two derived documents. The override is
// the authoritative audit fact: if the document update fails after the insert,
// the error is returned but the override is NOT rolled back — the documents
// are stale, detectably, until a re-run or the drift reaper fixes them.
func (s *ClearanceService) ClearStudent(ctx context.Context, req dto.ClearStudentRequest) (*model.ManualOverrideModel, error) {
	refs, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	override := &model.ManualOverrideModel{
		ManualOverrideId:        uuid.New(),
		ManualOverrideStudentId: req.StudentID,
		ManualOverrideServiceId: req.ServiceID,
		ManualOverrideLevel:     req.Level,
		ManualOverrideReasonId:  req.ReasonID,
		ManualOverrideNote:      req.Note,
		ManualOverrideAdminId:   req.AdminID,
	}
	if err := s.Overrides.Insert(ctx, override); err != nil {
		return nil, err
	}

	if err := s.updateDocuments(ctx, refs, []uuid.UUID{req.StudentID}, req.Note); err != nil {
		log.Printf("[CLEARANCE] override %s recorded but document update failed: %v", override.ManualOverrideId, err)
		return override, err
	}
	return override, nil
}

/* ===================== BATCH CLEARANCE ===================== */

// BatchClear pushes each student through the single-student path
// independently. Partial success is expected and reported, never aborted.
func (s *ClearanceService) BatchClear(ctx context.Context, req dto.BatchClearRequest) *dto.BatchClearResult {
	res := &dto.BatchClearResult{
		Total:   len(req.StudentIDs),
		Results: []uuid.UUID{},
		Errors:  []dto.BatchClearError{},
	}
	for _, studentID := range req.StudentIDs {
		override, err := s.ClearStudent(ctx, dto.ClearStudentRequest{
			StudentID: studentID,
			ServiceID: req.ServiceID,
			Level:     req.Level,
			ReasonID:  req.ReasonID,
			AdminID:   req.AdminID,
			Note:      req.Note,
		})
		if err != nil {
			kind := "internal"
			if de, ok := AsDomainError(err); ok {
				kind = de.Kind
			}
			res.Failed++
			res.Errors = append(res.Errors, dto.BatchClearError{
				StudentID: studentID,
				Error:     err.Error(),
				Kind:      kind,
			})
			continue
		}
		res.Successful++
		res.Results = append(res.Results, override.ManualOverrideId)
	}
	return res
}

/* ===================== VALIDATION PHASE ===================== */

type clearanceRefs struct {
	Student *regmodel.StudentModel
	Service *regmodel.ChapelServiceModel
	Reason  *regmodel.OverrideReasonModel
	Admin   *regmodel.AdminModel
}

// validate resolves every referenced entity concurrently and fails fast: the
// errgroup cancels the remaining lookups as soon as one errors. No side
// effects happen in this phase.
func (s *ClearanceService) validate(ctx context.Context, req dto.ClearStudentRequest) (*clearanceRefs, error) {
	if !constants.IsValidLevel(req.Level) {
		return nil, wrapf(ErrInvalidLevel, "level %d", req.Level)
	}

	refs := &clearanceRefs{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		refs.Student, err = s.Students.FindStudentByID(gctx, req.StudentID)
		return mapNotFound(err, ErrStudentNotFound)
	})
	g.Go(func() (err error) {
		refs.Service, err = s.Services.FindServiceByID(gctx, req.ServiceID)
		return mapNotFound(err, ErrServiceNotFound)
	})
	g.Go(func() (err error) {
		refs.Reason, err = s.Reasons.FindReasonByID(gctx, req.ReasonID)
		return mapNotFound(err, ErrInvalidReason)
	})
	g.Go(func() (err error) {
		refs.Admin, err = s.Admins.FindAdminByID(gctx, req.AdminID)
		return mapNotFound(err, ErrAdminNotFound)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if refs.Student.StudentLevel != req.Level {
		return nil, wrapf(ErrLevelMismatch, "student %s is level %d, request says %d",
			req.StudentID, refs.Student.StudentLevel, req.Level)
	}
	if refs.Reason.OverrideReasonRequiresNote && (req.Note == nil || strings.TrimSpace(*req.Note) == "") {
		return nil, wrapf(ErrNoteRequired, "reason %s", refs.Reason.OverrideReasonCode)
	}
	return refs, nil
}

func mapNotFound(err error, sentinel *DomainError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, registry.ErrNotFound) {
		return sentinel
	}
	return err
}

/* ===================== DOCUMENT UPDATE ===================== */

// updateDocuments rewrites both derived documents under the per-directory
// lock marker, retrying only contention with bounded backoff.
func (s *ClearanceService) updateDocuments(ctx context.Context, refs *clearanceRefs, studentIDs []uuid.UUID, note *string) error {
	dir := DocDir(refs.Service.ChapelServiceDate, refs.Service.ChapelServiceId, refs.Student.StudentLevel)

	// initial try plus lockAttempts retries, backing off 100/200/400ms
	var lastErr error
	for attempt := 0; attempt <= lockAttempts; attempt++ {
		if attempt > 0 {
			s.sleep(lockBackoff[attempt-1])
		}
		lastErr = withDocumentLock(ctx, s.Docs, dir, studentIDs, func() error {
			return s.rewriteDocuments(ctx, dir, refs, studentIDs, note)
		})
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}
	return wrapf(ErrStorageLocked, "%s after %d attempts: %v", dir, lockAttempts+1, lastErr)
}

// rewriteDocuments holds the lock. absentees.json drops the cleared students
// (idempotent: clearing an already-cleared student is a no-op there);
// manually_cleared.json gets a fresh record per student, replacing any prior
// entry rather than duplicating it. A student missing from absentees.json is
// skipped with a warning, never a failure.
func (s *ClearanceService) rewriteDocuments(ctx context.Context, dir string, refs *clearanceRefs, studentIDs []uuid.UUID, note *string) error {
	absKey := AbsenteesKey(dir)
	clearedKey := ClearedKey(dir)

	var absentees []dto.AbsenteeRecord
	if err := s.Docs.GetJSON(ctx, absKey, &absentees); err != nil {
		if errors.Is(err, osshelper.ErrObjectMalformed) {
			return wrapf(ErrDocumentMalformed, "%s: %v", absKey, err)
		}
		if !errors.Is(err, osshelper.ErrObjectNotFound) {
			return err
		}
	}

	var cleared []dto.ClearedRecord
	if err := s.Docs.GetJSON(ctx, clearedKey, &cleared); err != nil {
		if errors.Is(err, osshelper.ErrObjectMalformed) {
			return wrapf(ErrDocumentMalformed, "%s: %v", clearedKey, err)
		}
		if !errors.Is(err, osshelper.ErrObjectNotFound) {
			return err
		}
	}

	clearing := make(map[uuid.UUID]bool, len(studentIDs))
	for _, id := range studentIDs {
		clearing[id] = true
	}

	remaining := make([]dto.AbsenteeRecord, 0, len(absentees))
	clearedNow := make(map[uuid.UUID]dto.AbsenteeRecord, len(studentIDs))
	for _, e := range absentees {
		if clearing[e.StudentID] {
			clearedNow[e.StudentID] = e
			continue
		}
		remaining = append(remaining, e)
	}
	for _, id := range studentIDs {
		if _, ok := clearedNow[id]; !ok {
			log.Printf("[CLEARANCE] warn: student %s not in %s, skipping", id, absKey)
		}
	}
	if len(clearedNow) == 0 {
		// nothing to move; leave both documents untouched
		return nil
	}

	now := time.Now().UTC()
	for id, entry := range clearedNow {
		record := dto.ClearedRecord{
			AbsenteeRecord: entry,
			Clearance: dto.ClearanceInfo{
				Status:    "cleared",
				ClearedAt: now,
				ClearedBy: refs.Admin.AdminName,
				AdminID:   refs.Admin.AdminId,
				Reason:    refs.Reason.OverrideReasonCode,
				Notes:     note,
			},
		}
		replaced := false
		for i := range cleared {
			if cleared[i].StudentID == id {
				cleared[i] = record
				replaced = true
				break
			}
		}
		if !replaced {
			cleared = append(cleared, record)
		}
	}

	if err := s.Docs.PutJSON(ctx, absKey, remaining); err != nil {
		return err
	}
	return s.Docs.PutJSON(ctx, clearedKey, cleared)
}

func (s *ClearanceService) sleep(d time.Duration) {
	if s.Sleep != nil {
		s.Sleep(d)
		return
	}
	time.Sleep(d)
}

// isRetryable classifies contention: our own lock sentinel, the store's
// create-conflict, or anything whose message points at a conflict/lock.
func isRetryable(err error) bool {
	if errors.Is(err, errLockContended) || errors.Is(err, osshelper.ErrObjectExists) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "conflict") ||
		strings.Contains(msg, "concurren") ||
		strings.Contains(msg, "lock")
}
