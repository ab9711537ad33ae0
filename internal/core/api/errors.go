package api

import (
	"context"
	"errors"

	"github.com/solatis/schemamend/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Auth errors are mapped in the auth interceptor.

// statusError maps a service error to a gRPC status:
// unknown plans are NotFound, malformed requests InvalidArgument, context
// expiry DeadlineExceeded or Canceled, and storage failures Unavailable.
func statusError(err error) error {
	switch {
	case errors.Is(err, types.ErrPlanNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}

func invalidArgument(format string, args ...interface{}) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}
