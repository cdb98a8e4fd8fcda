package main

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/reglet-dev/permprobe/application/config"
	"github.com/reglet-dev/permprobe/transport/grpcbinder"
)

func newAgentCmd(g *globalFlags, s streams) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Serve a device's services to a remote prober over gRPC",
		Long: `Serves the device the session config names (the in-process reference device
by default) so that "permprobe run" with the grpc transport can probe it from
another process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, s.errOut)
			if err != nil {
				return err
			}
			lis, err := net.Listen("tcp", listen)
			if err != nil {
				return err
			}
			return serveAgent(cmd.Context(), lis, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:7411", "address to listen on")
	return cmd
}

// serveAgent serves until ctx is done.
func serveAgent(ctx context.Context, lis net.Listener, cfg *config.SessionConfig, logger *slog.Logger) error {
	dev, err := connect(ctx, cfg, logger)
	if err != nil {
		_ = lis.Close()
		return err
	}
	defer func() { _ = dev.close(context.Background()) }()

	gs := grpcbinder.NewGRPCServer(&grpcbinder.Server{
		Registry: dev.registry,
		Facts:    dev.platform,
		Grants:   dev.grants,
	}, logger)

	go func() {
		<-ctx.Done()
		gs.GracefulStop()
	}()

	logger.Info("agent listening",
		slog.String("address", lis.Addr().String()),
		slog.Int("sdk", dev.platform.SDKVersion()),
	)
	if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
