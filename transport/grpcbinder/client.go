package grpcbinder

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/reglet-dev/permprobe/domain/ports"
)

type clientConfig struct {
	dialOptions []grpc.DialOption
	callTimeout time.Duration
	maxMsgBytes int
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

// WithCallTimeout bounds every agent call that has no earlier deadline.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.callTimeout = d
	}
}

// WithMaxMsgBytes sets both send and receive message limits.
func WithMaxMsgBytes(n int) ClientOption {
	return func(c *clientConfig) {
		c.maxMsgBytes = n
	}
}

// WithDialOptions appends raw gRPC dial options.
func WithDialOptions(opts ...grpc.DialOption) ClientOption {
	return func(c *clientConfig) {
		c.dialOptions = append(c.dialOptions, opts...)
	}
}

// Client implements ports.ServiceRegistry and ports.GrantChecker against a
// device agent.
type Client struct {
	cc     *grpc.ClientConn
	agent  AgentClient
	config clientConfig
}

var (
	_ ports.ServiceRegistry = (*Client)(nil)
	_ ports.GrantChecker    = (*Client)(nil)
	_ ports.Binder          = (*remoteBinder)(nil)
)

// Dial connects to the agent at target. The connection is established
// lazily on the first call.
func Dial(target string, opts ...ClientOption) (*Client, error) {
	var cfg clientConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if cfg.maxMsgBytes > 0 {
		dialOpts = append(dialOpts, grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(cfg.maxMsgBytes),
			grpc.MaxCallSendMsgSize(cfg.maxMsgBytes),
		))
	}
	dialOpts = append(dialOpts, cfg.dialOptions...)

	cc, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial agent %s: %w", target, err)
	}
	return &Client{cc: cc, agent: NewAgentClient(cc), config: cfg}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// ctx applies the call timeout unless the caller already set a deadline,
// which then governs alone.
func (c *Client) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || c.config.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.config.callTimeout)
}

// GetService returns a handle to the named service, or nil when the agent
// does not know it.
func (c *Client) GetService(ctx context.Context, name string) (ports.Binder, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	if _, err := c.agent.Describe(ctx, wrapperspb.String(name)); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, mapRPC(name, err)
	}
	return &remoteBinder{client: c, name: name}, nil
}

// IsGranted asks the agent whether the caller holds capability.
func (c *Client) IsGranted(ctx context.Context, capability string) (bool, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.agent.IsGranted(ctx, wrapperspb.String(capability))
	if err != nil {
		return false, mapRPC(capability, err)
	}
	return reply.GetValue(), nil
}

// Platform fetches the device's platform facts.
func (c *Client) Platform(ctx context.Context) (ports.Platform, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.agent.Platform(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, mapRPC("platform", err)
	}
	info, err := decodePlatform(reply.GetValue())
	if err != nil {
		return nil, fmt.Errorf("malformed platform reply: %w", err)
	}
	return info, nil
}

// remoteBinder is a handle to one service behind the agent.
type remoteBinder struct {
	client *Client
	name   string
}

func (b *remoteBinder) InterfaceDescriptor(ctx context.Context) (string, error) {
	ctx, cancel := b.client.ctx(ctx)
	defer cancel()

	reply, err := b.client.agent.Describe(ctx, wrapperspb.String(b.name))
	if err != nil {
		return "", mapRPC(b.name, err)
	}
	return reply.GetValue(), nil
}

func (b *remoteBinder) Transact(ctx context.Context, code uint32, data []byte, flags uint32) ([]byte, error) {
	ctx, cancel := b.client.ctx(ctx)
	defer cancel()

	env := envelope{service: b.name, code: code, flags: flags, data: data}
	reply, err := b.client.agent.Transact(ctx, wrapperspb.Bytes(env.encode()))
	if err != nil {
		return nil, mapRPC(b.name, err)
	}
	return reply.GetValue(), nil
}
