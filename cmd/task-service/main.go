package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	config "github.com/NordCoder/Taskgate/internal/config/task-service"
	pg "github.com/NordCoder/Taskgate/internal/repository/postgres"
	tasksvc "github.com/NordCoder/Taskgate/internal/services/task-service"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting task-service", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	db, err := initDB(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	ev := initEvents(rootCtx, cfg, db, logger)
	ucCfg := tasksvc.Config{EventTimeout: cfg.Kafka.EventTimeout}
	if ev.tx != nil {
		ucCfg.Tx = ev.tx
	}
	uc := tasksvc.NewUsecase(pg.NewTaskRepo(db), ev.sink, logger, ucCfg)

	relayDone := make(chan struct{})
	relayCtx, stopRelay := context.WithCancel(rootCtx)
	defer stopRelay()
	if ev.relay != nil {
		go func() {
			defer close(relayDone)
			ev.relay.Run(relayCtx)
		}()
	} else {
		close(relayDone)
	}

	health := tasksvc.NewHealth(db.Ping, cfg.Health.Interval, cfg.Health.Timeout, logger)
	healthCtx, stopHealth := context.WithCancel(rootCtx)
	defer stopHealth()
	go health.Run(healthCtx)

	grpcServer, grpcLn, err := buildGRPCServer(cfg, health)
	if err != nil {
		logger.Fatal("build grpc", zap.Error(err))
	}
	grpcErrCh := make(chan error, 1)
	go func() { grpcErrCh <- serveGRPC(grpcServer, grpcLn, logger) }()

	httpSrv, err := buildHTTPServer(cfg, logger, uc, db.Ping)
	if err != nil {
		logger.Fatal("build http", zap.Error(err))
	}
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-grpcErrCh:
		if err != nil {
			logger.Error("grpc serve", zap.Error(err))
		}
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}

	health.Shutdown()

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	stopRelay()
	<-relayDone
	if err := ev.close(); err != nil {
		logger.Warn("kafka close", zap.Error(err))
	}
	logger.Info("bye")
}
