package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ebrown/guildhall/internal/archive"
	"github.com/ebrown/guildhall/internal/auth"
	"github.com/ebrown/guildhall/internal/config"
	"github.com/ebrown/guildhall/internal/database"
	"github.com/ebrown/guildhall/internal/docstore"
	"github.com/ebrown/guildhall/internal/legacy"
	"github.com/ebrown/guildhall/internal/logging"
	"github.com/ebrown/guildhall/internal/server"
	guildsync "github.com/ebrown/guildhall/internal/sync"
	ws "github.com/ebrown/guildhall/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogJSON)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Legacy v1 store, read once to seed the remote document on first launch.
	var legacyReader guildsync.LegacyReader
	if cfg.LegacyDBPath != "" {
		db, err := database.Open(cfg.LegacyDBPath)
		if err != nil {
			slog.Error("failed to open legacy database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		legacyReader = legacy.NewReader(db, logger.With("component", "legacy"))
	}

	var store docstore.Store
	if cfg.UseFirestore() {
		fs, err := docstore.NewFirestore(rootCtx, docstore.FirestoreConfig{
			ProjectID:       cfg.FirestoreProject,
			CredentialsFile: cfg.FirestoreCredentials,
			AppID:           cfg.AppID,
		}, logger.With("component", "firestore"))
		if err != nil {
			slog.Error("failed to connect to firestore", "error", err)
			os.Exit(1)
		}
		defer fs.Close()
		store = fs
		slog.Info("using firestore document store", "project", cfg.FirestoreProject, "app_id", cfg.AppID)
	} else {
		store = docstore.NewMemoryStore()
		slog.Warn("no firestore project configured, state will not survive a restart")
	}

	hub := ws.NewHub(logger.With("component", "websocket"))

	engine := guildsync.New(store, legacyReader, logger.With("component", "sync"), func(fields []string) {
		hub.Broadcast(ws.SyncMessage(fields))
	})
	go engine.Run(rootCtx)

	archiveMgr := archive.NewManager(archive.Config{
		S3: archive.S3Config{
			Endpoint:  cfg.ArchiveEndpoint,
			Bucket:    cfg.ArchiveBucket,
			Region:    cfg.ArchiveRegion,
			AccessKey: cfg.ArchiveAccessKey,
			SecretKey: cfg.ArchiveSecretKey,
			Prefix:    cfg.ArchivePrefix,
		},
		Interval: cfg.ArchiveInterval,
	}, engine, func(status archive.Status) {
		hub.Broadcast(ws.Message{Type: "archive_status", Extra: map[string]any{"status": status}})
	}, logger.With("component", "archive"))
	archiveMgr.Start(rootCtx)
	defer archiveMgr.Stop()

	sessions := auth.NewSessions(cfg.PasscodeHash)
	if sessions.Enabled() {
		slog.Info("passcode gate enabled")
	}

	srv := server.New(engine, hub, archiveMgr, sessions, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
				srv.Sessions().Sweep()
			case <-rootCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("guildhall starting", "addr", ":"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	rootCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
