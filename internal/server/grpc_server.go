package server

import (
	"fmt"
	"net"

	"google.golang.org/grpc"

	"mediaup/pkg/config"
	"mediaup/pkg/logger"
)

// NewGRPCServer builds a server with the upload service registered but does not listen.
func NewGRPCServer(cfg *config.Config, uploader Uploader) *grpc.Server {
	serverLogger := logger.WithField("component", "grpc-server")

	grpcOptions := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(int(cfg.GRPC.MaxRecvMsgSize)),
		grpc.MaxSendMsgSize(int(cfg.GRPC.MaxSendMsgSize)),
	}

	serverLogger.Debug("gRPC server options configured",
		"maxRecvMsgSize", cfg.GRPC.MaxRecvMsgSize,
		"maxSendMsgSize", cfg.GRPC.MaxSendMsgSize)

	grpcServer := grpc.NewServer(grpcOptions...)
	RegisterUploadServiceServer(grpcServer, NewUploadService(uploader, logger.Global()))

	serverLogger.Info("upload service registered successfully")
	return grpcServer
}

func StartGRPCServer(cfg *config.Config, uploader Uploader) (*grpc.Server, error) {
	serverLogger := logger.WithField("component", "grpc-server")
	address := cfg.Server.GRPCAddress

	serverLogger.Info("initializing gRPC server", "address", address)

	grpcServer := NewGRPCServer(cfg, uploader)

	lis, err := net.Listen("tcp", address)
	if err != nil {
		serverLogger.Error("failed to create listener", "address", address, "error", err)
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	go func() {
		serverLogger.Info("starting gRPC server", "address", lis.Addr().String(), "ready", true)

		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			serverLogger.Error("gRPC server stopped with error", "error", serveErr)
		} else {
			serverLogger.Info("gRPC server stopped gracefully")
		}
	}()

	return grpcServer, nil
}
