package grpcbinder

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "permprobe.binder.v1.Agent"

// AgentServer is the server API of the device agent.
//
// Messages are protobuf well-known wrapper types; call envelopes are parcels.
type AgentServer interface {
	Describe(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	Transact(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	IsGranted(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	Platform(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
}

// UnimplementedAgentServer can be embedded for forward compatibility.
type UnimplementedAgentServer struct{}

func (UnimplementedAgentServer) Describe(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Describe not implemented")
}
func (UnimplementedAgentServer) Transact(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Transact not implemented")
}
func (UnimplementedAgentServer) IsGranted(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method IsGranted not implemented")
}
func (UnimplementedAgentServer) Platform(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Platform not implemented")
}

// RegisterAgentServer registers the agent on a gRPC server.
func RegisterAgentServer(s grpc.ServiceRegistrar, srv AgentServer) {
	s.RegisterService(&Agent_ServiceDesc, srv)
}

// AgentClient is the client API of the device agent.
type AgentClient interface {
	Describe(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Transact(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	IsGranted(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	Platform(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type agentClient struct{ cc grpc.ClientConnInterface }

// NewAgentClient wraps a connection.
func NewAgentClient(cc grpc.ClientConnInterface) AgentClient { return &agentClient{cc: cc} }

func (c *agentClient) Describe(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Describe", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *agentClient) Transact(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Transact", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *agentClient) IsGranted(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/IsGranted", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *agentClient) Platform(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Platform", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func unaryHandler[In any, Out any](method string, call func(AgentServer, context.Context, *In) (*Out, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(In)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AgentServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + method}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(AgentServer), ctx, req.(*In))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Agent_ServiceDesc is the grpc.ServiceDesc of the device agent.
var Agent_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AgentServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Describe", AgentServer.Describe),
		unaryHandler("Transact", AgentServer.Transact),
		unaryHandler("IsGranted", AgentServer.IsGranted),
		unaryHandler("Platform", AgentServer.Platform),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "agent.proto",
}
