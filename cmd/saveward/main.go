package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/saveward/internal/database"
	"github.com/dukerupert/saveward/internal/gamesrv"
	"github.com/dukerupert/saveward/internal/logging"
	"github.com/dukerupert/saveward/internal/offsite"
	"github.com/dukerupert/saveward/internal/server"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.Setup(os.Getenv("SAVEWARD_LOG_LEVEL"), os.Getenv("SAVEWARD_LOG_FORMAT"))

	port := envOr("SAVEWARD_PORT", "8090")
	dbPath := envOr("SAVEWARD_DB_PATH", "saveward.db")
	containerName := envOr("SAVEWARD_CONTAINER", "game-server")

	cfg := server.Config{
		SaveDir:   envOr("SAVEWARD_SAVE_DIR", "/data/saves"),
		BackupDir: envOr("SAVEWARD_BACKUP_DIR", "/data/backups"),
		Offsite: offsite.Config{
			Endpoint:   os.Getenv("SAVEWARD_S3_ENDPOINT"),
			Bucket:     os.Getenv("SAVEWARD_S3_BUCKET"),
			Region:     envOr("SAVEWARD_S3_REGION", "us-east-1"),
			AccessKey:  os.Getenv("SAVEWARD_S3_ACCESS_KEY"),
			SecretKey:  os.Getenv("SAVEWARD_S3_SECRET_KEY"),
			Prefix:     os.Getenv("SAVEWARD_S3_PREFIX"),
			Passphrase: os.Getenv("SAVEWARD_S3_PASSPHRASE"),
		},
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	gateway, err := gamesrv.NewDockerGateway(containerName)
	if err != nil {
		log.Fatalf("failed to connect to docker: %v", err)
	}
	defer gateway.Close()

	srv, err := server.New(db, cfg, gateway, logger)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.StartScheduler(ctx)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 0, // restores can stream for a long time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("saveward listening", "port", port, "save_dir", cfg.SaveDir, "backup_dir", cfg.BackupDir)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	srv.StopScheduler()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
