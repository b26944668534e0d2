package service

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// DomainError is a typed failure with a machine-readable kind. Services wrap
// these with call-site detail via fmt.Errorf("%w: ..."); controllers map Kind
// and Status into the response envelope.
type DomainError struct {
	Kind    string
	Status  int
	Message string
}

func (e *DomainError) Error() string { return e.Message }

var (
	// input / state
	ErrInvalidFile        = &DomainError{Kind: "invalid_file", Status: fiber.StatusUnprocessableEntity, Message: "uploaded file cannot be parsed"}
	ErrInvalidLevel       = &DomainError{Kind: "invalid_level", Status: fiber.StatusBadRequest, Message: "level is not a known academic level"}
	ErrLevelNotApplicable = &DomainError{Kind: "level_not_applicable", Status: fiber.StatusBadRequest, Message: "service does not apply to this level"}
	ErrLevelMismatch      = &DomainError{Kind: "level_mismatch", Status: fiber.StatusBadRequest, Message: "student is not registered in this level"}
	ErrNoteRequired       = &DomainError{Kind: "note_required", Status: fiber.StatusBadRequest, Message: "this clearance reason requires a note"}
	ErrAlreadyTerminal    = &DomainError{Kind: "already_terminal", Status: fiber.StatusConflict, Message: "upload session already confirmed or cancelled"}

	// not-found, one kind per entity so callers can pinpoint the bad reference
	ErrSessionNotFound = &DomainError{Kind: "session_not_found", Status: fiber.StatusNotFound, Message: "upload session not found"}
	ErrServiceNotFound = &DomainError{Kind: "service_not_found", Status: fiber.StatusNotFound, Message: "chapel service not found"}
	ErrStudentNotFound = &DomainError{Kind: "student_not_found", Status: fiber.StatusNotFound, Message: "student not found"}
	ErrInvalidReason   = &DomainError{Kind: "invalid_reason", Status: fiber.StatusNotFound, Message: "override reason not found"}
	ErrAdminNotFound   = &DomainError{Kind: "admin_not_found", Status: fiber.StatusNotFound, Message: "admin not found"}
	ErrIssueNotFound   = &DomainError{Kind: "issue_not_found", Status: fiber.StatusNotFound, Message: "issue not found"}

	// consistency
	ErrCommitFailed      = &DomainError{Kind: "commit_failed", Status: fiber.StatusBadGateway, Message: "batch version write failed, confirm may be retried"}
	ErrStorageLocked     = &DomainError{Kind: "storage_locked", Status: fiber.StatusConflict, Message: "document store is locked by a concurrent clearance, retry later"}
	ErrDocumentMalformed = &DomainError{Kind: "document_malformed", Status: fiber.StatusBadGateway, Message: "stored document is malformed"}
	ErrIdentityConflict  = &DomainError{Kind: "identity_conflict", Status: fiber.StatusConflict, Message: "two documents disagree on a student identity"}
)

// AsDomainError unwraps err to its *DomainError, if any.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func wrapf(sentinel *DomainError, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...)
}
