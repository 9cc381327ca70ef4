package orders

import (
	"errors"

	"github.com/jinzhu/gorm"
)

// Every gateway failure wraps one of these sentinels. The REST layer maps
// them to status codes, the real-time layer to targeted error events.
var (
	// ErrNotFound means a referenced order, item, table or menu entry
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the actor's role does not permit the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition means the requested state change is not legal
	// from the record's current state. Idempotent re-application of an
	// already-satisfied transition is a silent no-op, not this error.
	ErrInvalidTransition = errors.New("invalid transition")
)

func notFound(err error) error {
	if gorm.IsRecordNotFoundError(err) {
		return ErrNotFound
	}
	return err
}
