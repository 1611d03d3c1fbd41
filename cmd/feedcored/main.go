package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/feedcore/config"
	"github.com/d60-Lab/feedcore/internal/api"
	"github.com/d60-Lab/feedcore/internal/api/handler"
	"github.com/d60-Lab/feedcore/internal/auth"
	"github.com/d60-Lab/feedcore/internal/blobstore"
	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/repository"
	"github.com/d60-Lab/feedcore/internal/service"
	"github.com/d60-Lab/feedcore/internal/telemetry"
	"github.com/d60-Lab/feedcore/pkg/logger"
)

// @title feedcore API
// @version 1.0
// @description 社交信息流核心服务
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg)
	if err != nil {
		logger.Error("telemetry init failed", zap.Error(err))
		os.Exit(1)
	}

	store, cache, err := openStore(cfg)
	if err != nil {
		logger.Error("store init failed", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	blobs, err := blobstore.NewLocalStore(cfg.Blob.Dir, cfg.Blob.BaseURL)
	if err != nil {
		logger.Error("blobstore init failed", zap.Error(err))
		os.Exit(1)
	}

	var profiles repository.ProfileRepository = repository.NewProfileRepository(store)
	if cache != nil {
		profiles = repository.NewCachedProfileRepository(profiles, cache, 5*time.Minute)
	}
	threads := repository.NewThreadRepository(store)
	feeds := repository.NewFeedRepository(store)
	communities := repository.NewCommunityRepository(store)
	notifications := repository.NewNotificationRepository(store)

	toggles := service.NewToggleEngine(store)
	synchronizer := service.NewSynchronizer(store, profiles, 8)

	authState := auth.NewState()
	authService := auth.NewService(store, profiles, blobs, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, authState)
	feedService := service.NewFeedService(feeds, profiles, toggles, synchronizer)
	chatService := service.NewChatService(threads, profiles, store, synchronizer)
	relService := service.NewRelationshipService(store, profiles, toggles)
	commService := service.NewCommunityService(communities, profiles, toggles, blobs)
	notifService := service.NewNotificationService(notifications, synchronizer)
	searchService := service.NewSearchService(store, communities)

	h := handler.New(authService, feedService, chatService, relService, commService, notifService, searchService)
	router := api.NewRouter(cfg, h, authService)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr), zap.String("backend", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown", zap.Error(err))
	}
}

// openStore builds the configured document store. The redis backend
// also returns the client reused for the profile cache.
func openStore(cfg *config.Config) (docstore.Store, *redis.Client, error) {
	switch cfg.Store.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr, DB: cfg.Store.RedisDB})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return docstore.NewRedisStore(rdb), rdb, nil
	case "sql":
		dialector := sqlite.Open(cfg.Store.SQLitePath)
		if cfg.Store.PostgresDSN != "" {
			dialector = postgres.Open(cfg.Store.PostgresDSN)
		}
		db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
		if err != nil {
			return nil, nil, fmt.Errorf("open sql: %w", err)
		}
		store, err := docstore.NewSQLStore(db, cfg.Store.PollInterval)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
