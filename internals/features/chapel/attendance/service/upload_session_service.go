package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"chapelku_backend/internals/constants"
	"chapelku_backend/internals/features/chapel/attendance/dto"
	"chapelku_backend/internals/features/chapel/attendance/matcher"
	"chapelku_backend/internals/features/chapel/attendance/model"
	"chapelku_backend/internals/features/chapel/registry"
)

// ScanUploader archives the raw scan blob. *osshelper.OSSService satisfies it.
type ScanUploader interface {
	UploadStream(ctx context.Context, key string, r io.Reader, contentType string) error
}

// UploadSessionService owns the pending -> confirmed/cancelled lifecycle of
// one uploaded scan file.
type UploadSessionService struct {
	Sessions SessionRepo
	Archives ArchiveRepo
	Issues   IssueRepo
	Students StudentLookup
	Services ServiceLookup
	Versions *BatchVersionService
	Docs     DocumentStore
	Blob     ScanUploader
}

func NewUploadSessionService(db *gorm.DB, reg *registry.Registry, docs DocumentStore, blob ScanUploader) *UploadSessionService {
	store := NewGormStore(db)
	return &UploadSessionService{
		Sessions: store,
		Archives: store.Archives(),
		Issues:   store.Issues(),
		Students: reg,
		Services: reg,
		Versions: NewBatchVersionService(store.Versions()),
		Docs:     docs,
		Blob:     blob,
	}
}

type OpenUploadInput struct {
	ServiceID   uuid.UUID
	Level       int
	UploaderID  uuid.UUID
	FileName    string
	ContentType string
	Data        []byte
}

/* ===================== OPEN ===================== */

// Open archives the raw file, runs the matcher against the level roster, and
// creates a pending session carrying the computed preview.
func (s *UploadSessionService) Open(ctx context.Context, in OpenUploadInput) (*model.UploadSessionModel, error) {
	if !constants.IsValidLevel(in.Level) {
		return nil, wrapf(ErrInvalidLevel, "level %d", in.Level)
	}

	svc, err := s.Services.FindServiceByID(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, wrapf(ErrServiceNotFound, "%s", in.ServiceID)
		}
		return nil, err
	}
	if !svc.AppliesToLevel(in.Level) {
		return nil, wrapf(ErrLevelNotApplicable, "service %s, level %d", in.ServiceID, in.Level)
	}

	rows, err := ParseScanRows(in.Data)
	if err != nil {
		return nil, wrapf(ErrInvalidFile, "%v", err)
	}

	// Archive the blob exactly as received before anything derived exists.
	scanKey := ScanKey(svc.ChapelServiceDate, in.ServiceID, in.Level, in.FileName)
	if err := s.Blob.UploadStream(ctx, scanKey, bytes.NewReader(in.Data), in.ContentType); err != nil {
		return nil, err
	}
	archive := &model.ScanArchiveModel{
		ScanArchiveId:         uuid.New(),
		ScanArchiveServiceId:  in.ServiceID,
		ScanArchiveLevel:      in.Level,
		ScanArchiveUploaderId: in.UploaderID,
		ScanArchiveObjectKey:  scanKey,
		ScanArchiveMimeType:   in.ContentType,
	}
	if err := s.Archives.Create(ctx, archive); err != nil {
		return nil, err
	}

	roster, err := s.Students.ListActiveStudentsByLevel(ctx, in.Level)
	if err != nil {
		return nil, err
	}
	entries := make([]matcher.RosterEntry, 0, len(roster))
	for _, st := range roster {
		entries = append(entries, matcher.RosterEntry{
			StudentID:    st.StudentId,
			MatricNumber: st.StudentMatricNumber,
			Name:         st.StudentName,
			Level:        st.StudentLevel,
			Gender:       st.StudentGender,
		})
	}

	m := matcher.Match(entries, rows)
	preview := dto.UploadPreview{
		Matched:   m.Matched,
		Unmatched: m.Unmatched,
		Absent:    m.Absent,
		Summary: dto.PreviewSummary{
			MatchedCount:   len(m.Matched),
			UnmatchedCount: len(m.Unmatched),
			AbsentCount:    len(m.Absent),
			RosterCount:    len(roster),
		},
	}
	rawPreview, err := sonic.Marshal(preview)
	if err != nil {
		return nil, err
	}

	session := &model.UploadSessionModel{
		UploadSessionId:            uuid.New(),
		UploadSessionServiceId:     in.ServiceID,
		UploadSessionLevel:         in.Level,
		UploadSessionUploaderId:    in.UploaderID,
		UploadSessionScanArchiveId: archive.ScanArchiveId,
		UploadSessionPreview:       datatypes.JSON(rawPreview),
		UploadSessionStatus:        model.UploadSessionStatusPending,
	}
	if err := s.Sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

/* ===================== PREVIEW ===================== */

// Preview returns the stored matched/unmatched/absent classification. No side
// effects; callable any number of times.
func (s *UploadSessionService) Preview(ctx context.Context, sessionID uuid.UUID) (*dto.UploadPreview, error) {
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return decodePreview(session)
}

/* ===================== CONFIRM ===================== */

// Confirm transitions pending -> confirmed: commits a new batch version from
// the stored preview, overwrites the level's absentees.json, and logs issues
// for unmatched rows. On a failed version write the session stays pending so
// confirm can be retried.
func (s *UploadSessionService) Confirm(ctx context.Context, sessionID, adminID uuid.UUID) (*model.AttendanceBatchVersionModel, error) {
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsPending() {
		return nil, wrapf(ErrAlreadyTerminal, "session %s is %s", sessionID, session.UploadSessionStatus)
	}

	preview, err := decodePreview(session)
	if err != nil {
		return nil, err
	}

	version, err := s.Versions.Commit(ctx,
		session.UploadSessionServiceId, session.UploadSessionLevel,
		preview.Matched, preview.Absent, preview.Unmatched, adminID)
	if err != nil {
		return nil, wrapf(ErrCommitFailed, "%v", err)
	}

	// Derived document write. A failure here is logged, not rolled back: the
	// version row is authoritative and the drift reaper re-derives documents.
	if svc, serr := s.Services.FindServiceByID(ctx, session.UploadSessionServiceId); serr != nil {
		log.Printf("[UPLOAD] warn: service lookup for document write failed: %v", serr)
	} else {
		dir := DocDir(svc.ChapelServiceDate, session.UploadSessionServiceId, session.UploadSessionLevel)
		if werr := s.Docs.PutJSON(ctx, AbsenteesKey(dir), preview.Absent); werr != nil {
			log.Printf("[UPLOAD] warn: absentees.json write failed for %s: %v", dir, werr)
		}
	}

	for _, u := range preview.Unmatched {
		detail, _ := sonic.Marshal(u)
		issue := &model.IssueModel{
			IssueId:             uuid.New(),
			IssueServiceId:      session.UploadSessionServiceId,
			IssueLevel:          session.UploadSessionLevel,
			IssueBatchVersionId: &version.AttendanceBatchVersionId,
			IssueKind:           model.IssueKindUnmatchedRow,
			IssueDetail:         datatypes.JSON(detail),
		}
		if ierr := s.Issues.Create(ctx, issue); ierr != nil {
			log.Printf("[UPLOAD] warn: issue log failed: %v", ierr)
		}
	}

	now := time.Now().UTC()
	session.UploadSessionStatus = model.UploadSessionStatusConfirmed
	session.UploadSessionConfirmedAt = &now
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return version, nil
}

/* ===================== CANCEL ===================== */

// Cancel transitions pending -> cancelled. The scan archive is retained for
// audit; no batch version is produced.
func (s *UploadSessionService) Cancel(ctx context.Context, sessionID uuid.UUID) (*model.UploadSessionModel, error) {
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsPending() {
		return nil, wrapf(ErrAlreadyTerminal, "session %s is %s", sessionID, session.UploadSessionStatus)
	}
	now := time.Now().UTC()
	session.UploadSessionStatus = model.UploadSessionStatusCancelled
	session.UploadSessionCancelledAt = &now
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *UploadSessionService) findSession(ctx context.Context, id uuid.UUID) (*model.UploadSessionModel, error) {
	session, err := s.Sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wrapf(ErrSessionNotFound, "%s", id)
		}
		return nil, err
	}
	return session, nil
}

func decodePreview(session *model.UploadSessionModel) (*dto.UploadPreview, error) {
	var preview dto.UploadPreview
	if err := sonic.Unmarshal(session.UploadSessionPreview, &preview); err != nil {
		return nil, wrapf(ErrDocumentMalformed, "session %s preview: %v", session.UploadSessionId, err)
	}
	return &preview, nil
}

/* ===================== SCAN ROWS ===================== */

// ParseScanRows turns the uploaded file into opaque key/value rows for the
// matcher. First CSV record is the header; header names are normalized the
// same way identifiers are. Cell syntax beyond that is not this engine's
// business.
func ParseScanRows(data []byte) ([]map[string]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty file")
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = matcher.Normalize(header[i])
	}

	var rows []map[string]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
