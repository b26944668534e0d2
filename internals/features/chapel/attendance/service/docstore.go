package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"chapelku_backend/internals/features/chapel/attendance/dto"
	osshelper "chapelku_backend/internals/helpers/oss"
)

// DocumentStore is the narrow object-store contract the engine needs:
// typed JSON get/put/remove plus the create-if-absent primitive used for lock
// markers. *osshelper.OSSService satisfies it; tests use an in-memory fake.
type DocumentStore interface {
	GetJSON(ctx context.Context, key string, out interface{}) error
	PutJSON(ctx context.Context, key string, v interface{}) error
	CreateJSON(ctx context.Context, key string, v interface{}) error
	Remove(ctx context.Context, key string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

/* =========================================================
 * Document layout
 * ========================================================= */

// DocDir is the per-(date, service, level) directory all derived documents
// and lock markers live under.
func DocDir(date time.Time, serviceID uuid.UUID, level int) string {
	return fmt.Sprintf("%s/%s/%d", date.Format("2006-01-02"), serviceID, level)
}

func AbsenteesKey(dir string) string { return dir + "/absentees.json" }
func ClearedKey(dir string) string   { return dir + "/manually_cleared.json" }

func LockKey(dir, operationID string) string { return dir + "/.lock-" + operationID }
func lockPrefix(dir string) string           { return dir + "/.lock-" }

// ScanKey is where a raw uploaded scan file is archived, next to (but outside)
// the derived documents.
func ScanKey(date time.Time, serviceID uuid.UUID, level int, filename string) string {
	return fmt.Sprintf("scans/%s/%s/%d/%s-%s", date.Format("2006-01-02"), serviceID, level, uuid.NewString()[:8], filename)
}

/* =========================================================
 * Lock marker protocol
 * ========================================================= */

// errLockContended marks a lock acquisition that lost to a concurrent holder.
// It is the only error class the clearance retry loop recovers from.
var errLockContended = errors.New("document lock contended")

// withDocumentLock runs fn while holding a lock marker in dir. The store has
// no native locking, so the marker's create-if-absent write is the mutex:
// any existing .lock-* object in the directory means another operation holds
// it. The marker is always removed afterwards, even when fn fails, so a
// crashed rewrite cannot deadlock later clearances forever.
func withDocumentLock(ctx context.Context, docs DocumentStore, dir string, studentIDs []uuid.UUID, fn func() error) error {
	markers, err := docs.ListKeys(ctx, lockPrefix(dir))
	if err != nil {
		return fmt.Errorf("list markers %s: %w", dir, err)
	}
	if len(markers) > 0 {
		return fmt.Errorf("%w: %s held by %v", errLockContended, dir, markers)
	}

	operationID := uuid.NewString()
	lockKey := LockKey(dir, operationID)
	marker := dto.LockMarker{
		OperationID: operationID,
		Timestamp:   time.Now().UTC(),
		StudentIDs:  studentIDs,
	}
	if err := docs.CreateJSON(ctx, lockKey, marker); err != nil {
		if errors.Is(err, osshelper.ErrObjectExists) {
			return fmt.Errorf("%w: %s", errLockContended, lockKey)
		}
		return fmt.Errorf("marker create %s: %w", lockKey, err)
	}
	defer func() {
		if err := docs.Remove(context.WithoutCancel(ctx), lockKey); err != nil {
			log.Printf("[LOCK] warn: failed to remove marker %s: %v", lockKey, err)
		}
	}()

	return fn()
}
