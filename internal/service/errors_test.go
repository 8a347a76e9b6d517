package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"connectrpc.com/connect"

	"github.com/Iamregulus/Group-savings-app/internal/savings"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{fmt.Errorf("group x: %w", savings.ErrNotFound), connect.CodeNotFound},
		{savings.ErrForbidden, connect.CodePermissionDenied},
		{savings.ErrGroupFull, connect.CodeResourceExhausted},
		{fmt.Errorf("%w: again", savings.ErrAlreadyMember), connect.CodeAlreadyExists},
		{savings.ErrInvalidState, connect.CodeFailedPrecondition},
		{savings.ErrSoleAdmin, connect.CodeFailedPrecondition},
		{savings.ErrInsufficientBalance, connect.CodeFailedPrecondition},
		{fmt.Errorf("%w: name", savings.ErrMissingField), connect.CodeInvalidArgument},
		{savings.ErrInvalidJoinCode, connect.CodeInvalidArgument},
		{errors.New("disk I/O error"), connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := codeOf(tt.err); got != tt.want {
				t.Errorf("codeOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestToConnectErrorHidesInternalDetails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := toConnectError(logger, "Contribute", errors.New("failed to insert transaction: database is locked"))

	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *connect.Error, got %T", err)
	}
	if cerr.Code() != connect.CodeInternal {
		t.Errorf("code = %v, want internal", cerr.Code())
	}
	if cerr.Message() != errInternal.Error() {
		t.Errorf("message leaked: %q", cerr.Message())
	}
}
