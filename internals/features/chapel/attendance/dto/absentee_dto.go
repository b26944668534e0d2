// Document shapes persisted to the object store. These are wire formats:
// renaming a field here changes the JSON documents on disk.
package dto

import (
	"time"

	"github.com/google/uuid"
)

// AbsenteeRecord is one entry of a level's absentees.json document and is also
// reused for matched/absent sets inside upload previews. UniqueID is the
// stable identity used for dedup across level documents.
type AbsenteeRecord struct {
	StudentID    uuid.UUID `json:"student_id"`
	MatricNumber string    `json:"matric_number"`
	StudentName  string    `json:"student_name"`
	Level        int       `json:"level"`
	Gender       string    `json:"gender"`
	UniqueID     string    `json:"unique_id"`
}

// ClearanceInfo annotates a cleared student inside manually_cleared.json.
type ClearanceInfo struct {
	Status    string    `json:"status"` // always "cleared"
	ClearedAt time.Time `json:"cleared_at"`
	ClearedBy string    `json:"cleared_by"` // admin display name
	AdminID   uuid.UUID `json:"admin_id"`
	Reason    string    `json:"reason"` // reason code, e.g. "exeat"
	Notes     *string   `json:"notes,omitempty"`
}

// ClearedRecord is one entry of manually_cleared.json: the original absentee
// fields plus the clearance sub-object.
type ClearedRecord struct {
	AbsenteeRecord
	Clearance ClearanceInfo `json:"clearance"`
}

// LockMarker is the body of a .lock-{operationId} object. The marker's
// existence, not its content, is the mutual-exclusion primitive; the content
// only helps a human diagnose a stuck lock.
type LockMarker struct {
	OperationID string      `json:"operationId"`
	Timestamp   time.Time   `json:"timestamp"`
	StudentIDs  []uuid.UUID `json:"studentIds"`
}
