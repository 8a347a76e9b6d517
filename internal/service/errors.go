package service

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/Iamregulus/Group-savings-app/internal/savings"
)

var errInternal = errors.New("internal error")

// toConnectError maps savings errors onto Connect codes. Unknown errors are
// logged and replaced with a generic internal error so storage details never
// reach the client.
func toConnectError(logger *slog.Logger, op string, err error) error {
	code := codeOf(err)
	if code == connect.CodeInternal {
		logger.Error(op+" failed", "error", err)
		return connect.NewError(code, errInternal)
	}
	logger.Warn(op+" rejected", "error", err)
	return connect.NewError(code, err)
}

func codeOf(err error) connect.Code {
	switch {
	case errors.Is(err, savings.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, savings.ErrForbidden):
		return connect.CodePermissionDenied
	case errors.Is(err, savings.ErrGroupFull):
		return connect.CodeResourceExhausted
	case errors.Is(err, savings.ErrConflict):
		return connect.CodeAlreadyExists
	case errors.Is(err, savings.ErrInvalidState),
		errors.Is(err, savings.ErrGroupNotActive),
		errors.Is(err, savings.ErrNotAcceptingMembers),
		errors.Is(err, savings.ErrSoleAdmin),
		errors.Is(err, savings.ErrNotAMember),
		errors.Is(err, savings.ErrInsufficientBalance):
		return connect.CodeFailedPrecondition
	case errors.Is(err, savings.ErrMissingField),
		errors.Is(err, savings.ErrInvalidField),
		errors.Is(err, savings.ErrInvalidAmount),
		errors.Is(err, savings.ErrInvalidAction),
		errors.Is(err, savings.ErrInvalidJoinCode):
		return connect.CodeInvalidArgument
	default:
		return connect.CodeInternal
	}
}
