package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC status codes. Only the client-safe
// message ever leaves the process.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, common.PublicMessage(err))
	case errors.Is(err, common.ErrorConflict):
		return status.Error(codes.AlreadyExists, common.PublicMessage(err))
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, common.PublicMessage(err))
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.PublicMessage(err))
	}
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}
