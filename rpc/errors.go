package rpc

import (
	"context"
	"errors"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatus(err error) error {
	if err == nil {
		return nil
	}

	var code codes.Code
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, domain.ErrUnknownSymbol):
		code = codes.InvalidArgument
	case errors.Is(err, domain.ErrEmptySnapshot):
		code = codes.FailedPrecondition
	case errors.Is(err, domain.ErrUnavailable):
		code = codes.Unavailable
	case errors.Is(err, domain.ErrStreamClosed):
		code = codes.Aborted
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}

	return status.Error(code, err.Error())
}
