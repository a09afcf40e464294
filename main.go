package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/config"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/infrastructure/logger"
	promclient "github.com/spooky-finn/go-cryptomarkets-aggregator/infrastructure/prometheus"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/provider"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/rpc"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/usecase"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(logger.Options{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.DebugMode,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zl = zl.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := promclient.NewMetrics()
	if cfg.App.MetricsAddr != "" {
		go func() {
			if err := promclient.StartPromClientServer(ctx, cfg.App.MetricsAddr, metrics, zl.Named("metrics")); err != nil {
				zl.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	connManager, err := provider.NewConnectionManager(cfg, zl)
	if err != nil {
		zl.Fatal("Failed to create connection manager", zap.Error(err))
	}
	defer connManager.Close()

	catalog, err := usecase.NewSymbolCatalog(connManager, cfg.Catalog.Symbols, cfg.Catalog.RefreshInterval, zl.Named("catalog"))
	if err != nil {
		zl.Fatal("Failed to create symbol catalog", zap.Error(err))
	}

	summaryUseCase := usecase.NewSummaryUseCase(connManager, catalog, metrics, zl.Named("summary"), usecase.Options{
		DefaultLevels:   cfg.Book.DefaultLevels,
		SnapshotDepth:   cfg.Book.SnapshotDepth,
		SummaryBuffer:   cfg.Book.SummaryBuffer,
		SnapshotTimeout: cfg.Book.SnapshotTimeout,
	})

	grpcServer := rpc.NewGrpcServer(
		rpc.NewServer(summaryUseCase, &rpc.ValidationServiceConfig{MaxLevels: cfg.Book.MaxLevels}, zl.Named("rpc")),
		cfg.App.Environment == "development",
	)

	lis, err := net.Listen("tcp", cfg.App.GRPCAddr)
	if err != nil {
		zl.Fatal("Failed to listen", zap.String("addr", cfg.App.GRPCAddr), zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		zl.Info("gRPC server listening", zap.String("addr", lis.Addr().String()), zap.Strings("exchanges", cfg.Exchanges))
		if err := grpcServer.Serve(lis); err != nil {
			zl.Error("Failed to serve gRPC server", zap.Error(err))
			select {
			case quit <- syscall.SIGTERM:
			default:
			}
		}
	}()

	<-quit

	zl.Info("Shutting down gRPC server...")
	grpcServer.Stop()
	cancel()

	zl.Info("gRPC server stopped")
}
