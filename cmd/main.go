package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledcanvas/internal/artifact"
	"ledcanvas/internal/events"
	"ledcanvas/internal/logger"
	"ledcanvas/internal/models"
	"ledcanvas/internal/server"
	"ledcanvas/internal/storage"
	"ledcanvas/internal/workers"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := models.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logger.New(cfg.LogLevel)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := storage.NewStorage(ctx, cfg.DatabaseURL, lg)
	if err != nil {
		lg.Error("failed to init storage", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	blobs, err := storage.NewFilesystem(cfg.StoragePath)
	if err != nil {
		lg.Error("failed to init file storage", "error", err)
		os.Exit(1)
	}

	pool := workers.NewPool(cfg.UploadWorkers, lg)
	defer pool.Close()

	store := artifact.NewStore(blobs, db, pool, lg)

	deps := server.Deps{
		Store: store,
		Repo:  db,
		Blobs: blobs,
	}
	if cfg.KafkaBroker != "" {
		writer := events.NewKafkaWriter(cfg.KafkaBroker, cfg.KafkaTopic)
		defer writer.Close()
		deps.Publisher = events.NewKafkaPublisher(writer)
	} else {
		lg.Info("kafka_broker not set, artifact events disabled")
	}

	srv := server.NewServer(cfg, deps, lg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			lg.Error("server stopped", "error", err)
		}
	case <-ctx.Done():
		lg.Info("shutting down")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Stop(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", "error", err)
	}
}
