package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicdesk/backend/internal/analysis"
	"civicdesk/backend/internal/api/handler"
	"civicdesk/backend/internal/auth"
	"civicdesk/backend/internal/complaint"
	"civicdesk/backend/internal/config"
	"civicdesk/backend/internal/eventhub"
	"civicdesk/backend/internal/localization"
	"civicdesk/backend/internal/obs"
	"civicdesk/backend/internal/presence"
	"civicdesk/backend/internal/storage"
	"civicdesk/backend/internal/telegram"
	"civicdesk/backend/internal/views"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 10 * time.Second

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "civicdesk",
		Short: "Civic complaint backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				_ = os.Setenv("CIVIC_CONFIG", configPath)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if verbose {
				cfg.LogLevel = "debug"
			}
			logger, err := obs.NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger)
		},
		SilenceUsage: true,
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file (overrides CIVIC_CONFIG)")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// openRedis returns nil when no address is configured.
func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return rdb, nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	obs.Init()

	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	rdb, err := openRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	store := storage.NewStorageService(db, rdb)
	if err := store.Migrate(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database ready", zap.Bool("redis", rdb != nil))

	hub := eventhub.NewHub(logger)
	go hub.Run(ctx)
	if rdb != nil {
		ps, err := store.SubscribeEvents(ctx)
		if err != nil {
			return err
		}
		go hub.ListenRedis(ctx, ps)
	} else {
		store.LocalEvents = hub.Broadcast
	}

	scorer, err := analysis.NewFromConfig(ctx, cfg.Scorer, logger)
	if err != nil {
		return fmt.Errorf("build urgency scorer: %w", err)
	}
	complaints := complaint.NewService(store, scorer, logger)
	complaints.Limiter = complaint.NewLimiter(cfg.Submission.PerHour, cfg.Submission.Burst)

	loc, err := localization.Default()
	if err != nil {
		return err
	}
	if cfg.Telegram.BotToken != "" {
		bot, err := telegram.NewBot(cfg.Telegram.BotToken, store, loc, logger)
		if err != nil {
			// Notifications are optional; the API keeps running without them.
			logger.Warn("telegram disabled", zap.Error(err))
		} else {
			complaints.Notifier = telegram.NewNotifier(bot.Sender, store, loc, logger)
			go bot.Run(ctx)
		}
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authSvc := auth.NewService(store, tokens, logger)
	roster := presence.NewRoster(store, cfg.Presence)
	h := handler.NewHandler(authSvc, complaints, views.NewService(complaints, roster, store), roster, store, hub, logger)
	h.Languages = loc.Languages()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	h.Register(r)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   cfg.Scorer.Timeout + 10*time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	return nil
}
