package service

import (
	"context"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"chapelku_backend/internals/features/chapel/attendance/dto"
	"chapelku_backend/internals/features/chapel/registry"
	helperconf "chapelku_backend/internals/configs"
)

// DriftReaper is the out-of-band reconciliation job for the accepted
// override-vs-document inconsistency window: a clearance whose document
// rewrite failed leaves stale documents behind. The reaper re-derives both
// documents from the authoritative override rows, which is idempotent, so
// running it against already-consistent state is harmless.
type DriftReaper struct {
	Versions  VersionRepo
	Overrides OverrideRepo
	Services  ServiceLookup
	Reasons   ReasonLookup
	Admins    AdminLookup
	Docs      DocumentStore

	Lookback time.Duration
}

func NewDriftReaper(db *gorm.DB, reg *registry.Registry, docs DocumentStore) *DriftReaper {
	store := NewGormStore(db)
	return &DriftReaper{
		Versions:  store.Versions(),
		Overrides: store.Overrides(),
		Services:  reg,
		Reasons:   reg,
		Admins:    reg,
		Docs:      docs,
		Lookback:  48 * time.Hour,
	}
}

// StartDriftReaperCron schedules the reaper. Schedule comes from
// DRIFT_CRON_SCHEDULE (default 02:45 nightly).
func StartDriftReaperCron(db *gorm.DB, reg *registry.Registry, docs DocumentStore) {
	reaper := NewDriftReaper(db, reg, docs)
	schedule := helperconf.GetEnvOr("DRIFT_CRON_SCHEDULE", "45 2 * * *")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
		defer cancel()
		if err := reaper.Run(ctx); err != nil {
			log.Printf("[DRIFT-REAPER] error: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("[DRIFT-REAPER] add cron failed: %v", err)
	}
	log.Printf("[DRIFT-REAPER] started schedule=%q lookback=%s", schedule, reaper.Lookback)
	c.Start()
}

// Run re-derives documents for every (service, level) pair with recent
// override activity.
func (r *DriftReaper) Run(ctx context.Context) error {
	groups, err := r.Overrides.ListGroupsSince(ctx, time.Now().Add(-r.Lookback))
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		log.Printf("[DRIFT-REAPER] nothing to reconcile")
		return nil
	}
	for _, g := range groups {
		if err := r.rederive(ctx, g.ServiceID, g.Level); err != nil {
			log.Printf("[DRIFT-REAPER] %s/%d: %v", g.ServiceID, g.Level, err)
			continue
		}
	}
	return nil
}

func (r *DriftReaper) rederive(ctx context.Context, serviceID uuid.UUID, level int) error {
	svc, err := r.Services.FindServiceByID(ctx, serviceID)
	if err != nil {
		return err
	}
	version, err := r.Versions.Current(ctx, serviceID, level)
	if err != nil {
		return err
	}
	if version == nil {
		return nil // no confirmed upload yet, nothing to derive from
	}

	var base []dto.AbsenteeRecord
	if err := sonic.Unmarshal(version.AttendanceBatchVersionAbsentees, &base); err != nil {
		return wrapf(ErrDocumentMalformed, "version %s absentees: %v", version.AttendanceBatchVersionId, err)
	}

	overrides, err := r.Overrides.ListByServiceLevel(ctx, serviceID, level)
	if err != nil {
		return err
	}

	byStudent := make(map[uuid.UUID]dto.AbsenteeRecord, len(base))
	for _, e := range base {
		byStudent[e.StudentID] = e
	}

	clearedRecords := make(map[uuid.UUID]dto.ClearedRecord)
	for _, ov := range overrides {
		entry, ok := byStudent[ov.ManualOverrideStudentId]
		if !ok {
			log.Printf("[DRIFT-REAPER] warn: override %s targets student %s absent from version %s",
				ov.ManualOverrideId, ov.ManualOverrideStudentId, version.AttendanceBatchVersionId)
			continue
		}
		reasonCode := ""
		if reason, rerr := r.Reasons.FindReasonByID(ctx, ov.ManualOverrideReasonId); rerr == nil {
			reasonCode = reason.OverrideReasonCode
		}
		adminName := ""
		if admin, aerr := r.Admins.FindAdminByID(ctx, ov.ManualOverrideAdminId); aerr == nil {
			adminName = admin.AdminName
		}
		// overrides arrive ordered by created_at, so the latest decision wins
		clearedRecords[ov.ManualOverrideStudentId] = dto.ClearedRecord{
			AbsenteeRecord: entry,
			Clearance: dto.ClearanceInfo{
				Status:    "cleared",
				ClearedAt: ov.ManualOverrideCreatedAt,
				ClearedBy: adminName,
				AdminID:   ov.ManualOverrideAdminId,
				Reason:    reasonCode,
				Notes:     ov.ManualOverrideNote,
			},
		}
	}

	remaining := make([]dto.AbsenteeRecord, 0, len(base))
	for _, e := range base {
		if _, cleared := clearedRecords[e.StudentID]; !cleared {
			remaining = append(remaining, e)
		}
	}
	cleared := make([]dto.ClearedRecord, 0, len(clearedRecords))
	for _, e := range base { // base order keeps the document deterministic
		if rec, ok := clearedRecords[e.StudentID]; ok {
			cleared = append(cleared, rec)
		}
	}

	dir := DocDir(svc.ChapelServiceDate, serviceID, level)
	studentIDs := make([]uuid.UUID, 0, len(clearedRecords))
	for id := range clearedRecords {
		studentIDs = append(studentIDs, id)
	}
	return withDocumentLock(ctx, r.Docs, dir, studentIDs, func() error {
		if err := r.Docs.PutJSON(ctx, AbsenteesKey(dir), remaining); err != nil {
			return err
		}
		return r.Docs.PutJSON(ctx, ClearedKey(dir), cleared)
	})
}
