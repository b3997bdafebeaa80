package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/drschille/CRDT-Server/internal/api"
	"github.com/drschille/CRDT-Server/internal/collab"
	"github.com/drschille/CRDT-Server/internal/config"
	"github.com/drschille/CRDT-Server/internal/docstore"
	"github.com/drschille/CRDT-Server/internal/logger"
	"github.com/drschille/CRDT-Server/internal/models"
	"github.com/drschille/CRDT-Server/internal/store"
)

const flushInterval = time.Second

func main() {
	// Load .env file if exists
	godotenv.Load()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blobs, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open blob store: %v", err)
	}
	defer blobs.Close()

	cache := docstore.New(blobs)

	// Eagerly load the always-on documents before serving traffic; list
	// documents load lazily on first access.
	if _, err := cache.Get(ctx, models.RegistryKey()); err != nil {
		logger.Fatal("failed to load registry: %v", err)
	}
	if _, err := cache.Get(ctx, models.BulletinsKey()); err != nil {
		logger.Fatal("failed to load bulletins: %v", err)
	}

	hub := collab.NewHub(cache, blobs)
	ws := collab.NewServer(hub)

	// Periodic flush of dirty documents
	go func() {
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				hub.FlushAll(ctx)
			}
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Must be false when AllowOrigins is *
		MaxAge:           12 * time.Hour,
	}))

	handler := api.NewHandler(hub, ws, cfg)
	handler.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("server starting on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed: %v", err)
	}

	// Stop the flush timer, then write everything still dirty.
	cancel()
	if err := hub.FlushAll(shutdownCtx); err != nil {
		logger.Error("final flush failed: %v", err)
	}
	logger.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		return store.NewPostgres(ctx, cfg.DatabaseURL)
	case cfg.RedisURL != "":
		return store.NewRedis(ctx, cfg.RedisURL)
	default:
		return store.NewFS(cfg.DataDir)
	}
}
