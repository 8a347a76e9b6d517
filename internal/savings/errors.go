package savings

import (
	"errors"

	"github.com/Iamregulus/Group-savings-app/internal/storage"
)

var (
	// ErrNotFound is storage.ErrNotFound so absent rows surface unchanged.
	ErrNotFound = storage.ErrNotFound

	ErrForbidden           = errors.New("forbidden")
	ErrInvalidState        = errors.New("invalid state")
	ErrInvalidAction       = errors.New("invalid action")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrMissingField        = errors.New("missing required field")
	ErrInvalidField        = errors.New("invalid field")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotAcceptingMembers = errors.New("group is not accepting new members")
	ErrInvalidJoinCode     = errors.New("invalid join code")
	ErrNotAMember          = errors.New("not a member of this group")
	ErrSoleAdmin           = errors.New("cannot leave group as the only admin")
	ErrGroupNotActive      = errors.New("group is not active")

	// ErrConflict matches every conflict-class error below.
	ErrConflict = errors.New("conflict")

	ErrAlreadyMember error = &conflictError{msg: "already a member of this group"}
	ErrGroupFull     error = &conflictError{msg: "group has reached maximum members"}
)

type conflictError struct {
	msg string
}

func (e *conflictError) Error() string { return e.msg }

// Is lets errors.Is(err, ErrConflict) match any conflictError.
func (e *conflictError) Is(target error) bool { return target == ErrConflict }
