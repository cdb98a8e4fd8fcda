package grpcbinder

import (
	"context"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/reglet-dev/permprobe/domain/errors"
)

// mapRPC translates agent status codes back into transport errors.
func mapRPC(call string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound, codes.Unavailable:
		return fmt.Errorf("%w: %s", errors.ErrDeadObject, st.Message())
	case codes.PermissionDenied:
		return errors.AccessDenied(call, st.Message())
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", context.DeadlineExceeded, st.Message())
	case codes.Canceled:
		return fmt.Errorf("%w: %s", context.Canceled, st.Message())
	default:
		return err
	}
}
