package grpcbinder

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
	"github.com/reglet-dev/permprobe/domain/ports"
)

// Server exposes a device's service registry, platform facts and grant
// status to a remote prober.
type Server struct {
	UnimplementedAgentServer

	Registry ports.ServiceRegistry
	Facts    ports.Platform
	Grants   ports.GrantChecker
}

// Describe returns the interface descriptor of a registered service.
func (s *Server) Describe(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	b, err := s.lookup(ctx, in.GetValue())
	if err != nil {
		return nil, err
	}
	desc, err := b.InterfaceDescriptor(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(desc), nil
}

// Transact forwards an enveloped call to the named service and returns its
// reply payload unchanged.
func (s *Server) Transact(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	env, err := decodeEnvelope(in.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed envelope: %v", err)
	}
	b, err := s.lookup(ctx, env.service)
	if err != nil {
		return nil, err
	}
	reply, err := b.Transact(ctx, env.code, env.data, env.flags)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(reply), nil
}

// IsGranted reports the caller's grant status for a capability.
func (s *Server) IsGranted(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s.Grants == nil {
		return nil, status.Error(codes.Unimplemented, "grant checks not supported")
	}
	ok, err := s.Grants.IsGranted(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(ok), nil
}

// Platform returns the platform version and caller identity.
func (s *Server) Platform(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	if s.Facts == nil {
		return nil, status.Error(codes.Unimplemented, "platform facts not supported")
	}
	info := platformInfo{sdk: s.Facts.SDKVersion(), uid: s.Facts.CallerUID()}
	return wrapperspb.Bytes(info.encode()), nil
}

func (s *Server) lookup(ctx context.Context, name string) (ports.Binder, error) {
	if s.Registry == nil {
		return nil, status.Error(codes.Unavailable, "no service registry")
	}
	b, err := s.Registry.GetService(ctx, name)
	if err != nil {
		return nil, toStatus(err)
	}
	if b == nil {
		return nil, status.Errorf(codes.NotFound, "service %q is not registered", name)
	}
	return b, nil
}

func toStatus(err error) error {
	switch {
	case stdErrors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case stdErrors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case stdErrors.Is(err, errors.ErrDeadObject):
		return status.Error(codes.Unavailable, err.Error())
	}
	switch errors.KindOf(err) {
	case entities.FailureAccessDenied:
		return status.Error(codes.PermissionDenied, err.Error())
	case entities.FailureServiceUnavailable:
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// LoggingInterceptor logs every agent call at debug level and failures at
// warn level.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		attrs := []any{"method", info.FullMethod, "duration", time.Since(start)}
		if err != nil {
			logger.WarnContext(ctx, "agent call failed", append(attrs, "code", status.Code(err).String(), "error", err)...)
		} else {
			logger.DebugContext(ctx, "agent call", attrs...)
		}
		return resp, err
	}
}

// NewGRPCServer builds a gRPC server hosting srv.
func NewGRPCServer(srv *Server, logger *slog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(LoggingInterceptor(logger)))
	gs := grpc.NewServer(opts...)
	RegisterAgentServer(gs, srv)
	return gs
}
