package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/niceweather/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errInvalidCredentials = status.Error(codes.Unauthenticated, "invalid credentials")

// toStatus maps a service error onto a gRPC status. Unknown errors become a
// bare Internal so storage details never reach the caller.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrPasswordTooShort),
		errors.Is(err, common.ErrInvalidUsername),
		errors.Is(err, common.ErrInvalidLocation),
		errors.Is(err, common.ErrInvalidDeviceType),
		errors.Is(err, common.ErrInvalidPushToken):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrUserAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "token expired")
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, common.ErrJobAlreadyRunning):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}
