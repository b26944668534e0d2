package helper

import "errors"

var (
	// ErrObjectNotFound: the requested object does not exist. Callers decide
	// whether that is an error (lock marker) or a default (missing document).
	ErrObjectNotFound = errors.New("object not found")

	// ErrObjectExists: create-if-absent lost the race to another writer.
	ErrObjectExists = errors.New("object already exists")

	// ErrObjectMalformed: the object exists but is not valid JSON for the
	// requested shape.
	ErrObjectMalformed = errors.New("object malformed")
)
