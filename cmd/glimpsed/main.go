package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"glimpse/internal/captures"
	"glimpse/internal/config"
	"glimpse/internal/daemon"
	"glimpse/internal/ipc"
	"glimpse/internal/logging"
	"glimpse/internal/scheduler"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := captures.Open(cfg)
	if err != nil {
		logger.Error("open captures store", logging.Error(err))
		return
	}

	processor, err := buildProcessor(cfg, store, logger)
	if err != nil {
		logger.Error("build pipeline", logging.Error(err))
		return
	}

	sched, err := scheduler.New(processor, logger,
		scheduler.WithErrorRetryInterval(time.Duration(cfg.Scheduler.ErrorRetryInterval)*time.Second))
	if err != nil {
		logger.Error("build scheduler", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, store, processor, sched, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("glimpsed shutting down")
}
