package modes

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediaup/internal/server"
	"mediaup/internal/upload"
	"mediaup/pkg/config"
	"mediaup/pkg/logger"
)

// SetupLogger builds the process logger from cfg and installs it as global.
// The returned func closes a file output, if any.
func SetupLogger(cfg *config.Config) (*logger.Logger, func() error, error) {
	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	out, closeOut, err := logger.OpenOutput(cfg.Logging.Output)
	if err != nil {
		return nil, nil, err
	}

	log := logger.NewWithConfig(logger.Config{
		Level:  level,
		Output: out,
		Format: cfg.Logging.Format,
	})
	logger.SetGlobal(log)
	return log, closeOut, nil
}

func RunServer(cfg *config.Config) error {
	appLogger, closeLog, err := SetupLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	log := appLogger.WithField("mode", "server")
	log.Info("starting upload server",
		"grpcAddress", cfg.Server.GRPCAddress,
		"httpAddress", cfg.Server.HTTPAddress,
		"maxWorkers", cfg.Batch.MaxWorkers)

	svc, err := upload.NewService(cfg,
		upload.WithLogger(appLogger),
		upload.WithRegisterer(prometheus.DefaultRegisterer),
	)
	if err != nil {
		return fmt.Errorf("failed to build upload service: %w", err)
	}

	grpcServer, err := server.StartGRPCServer(cfg, svc)
	if err != nil {
		return fmt.Errorf("failed to start gRPC server: %w", err)
	}

	httpServer, err := server.StartHTTPServer(cfg, server.NewRouter(svc, promhttp.Handler(), int64(cfg.GRPC.MaxRecvMsgSize)))
	if err != nil {
		grpcServer.Stop()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info("server started successfully")

	<-sigChan
	log.Info("received shutdown signal, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Warn("http server shutdown incomplete", "error", err)
		}
	}

	// in-flight batches run to completion unless the deadline passes
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		log.Warn("graceful stop timed out, forcing")
		grpcServer.Stop()
	}

	log.Info("server stopped gracefully")
	return nil
}
