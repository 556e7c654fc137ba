package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/educert/internal/errs"
)

// toStatus maps an error kind onto a gRPC status. The message keeps the detail.
// A context error wins over the kind it is wrapped in.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var code codes.Code
	switch {
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, errs.ErrNotConnected):
		code = codes.FailedPrecondition
	case errors.Is(err, errs.ErrExtensionUnavailable):
		code = codes.Unavailable
	case errors.Is(err, errs.ErrInvalidInput):
		code = codes.InvalidArgument
	case errors.Is(err, errs.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, errs.ErrContractRejected):
		code = codes.Aborted
	case errors.Is(err, errs.ErrTransportFailure):
		code = codes.Unavailable
	case errors.Is(err, errs.ErrUnauthorized):
		code = codes.PermissionDenied
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

// FromStatus recovers the error kind from a status returned by the daemon.
func FromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || err == nil {
		return err
	}
	var kind error
	switch st.Code() {
	case codes.FailedPrecondition:
		kind = errs.ErrNotConnected
	case codes.InvalidArgument:
		kind = errs.ErrInvalidInput
	case codes.NotFound:
		kind = errs.ErrNotFound
	case codes.Aborted:
		kind = errs.ErrContractRejected
	case codes.Unavailable:
		kind = errs.ErrTransportFailure
	case codes.PermissionDenied, codes.Unauthenticated:
		kind = errs.ErrUnauthorized
	default:
		return err
	}
	return &remoteError{kind: kind, msg: st.Message()}
}

// remoteError keeps the daemon's message and unwraps to the local kind.
type remoteError struct {
	kind error
	msg  string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.kind }
