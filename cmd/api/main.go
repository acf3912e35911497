package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/bryanwahyu/clarify/internal/application"
	appai "github.com/bryanwahyu/clarify/internal/application/ai"
	apphw "github.com/bryanwahyu/clarify/internal/application/homework"
	"github.com/bryanwahyu/clarify/internal/config"
	"github.com/bryanwahyu/clarify/internal/domain/ai"
	"github.com/bryanwahyu/clarify/internal/domain/conversation"
	"github.com/bryanwahyu/clarify/internal/domain/homework"
	"github.com/bryanwahyu/clarify/internal/infra/ai/gemini"
	"github.com/bryanwahyu/clarify/internal/infra/ai/openai"
	"github.com/bryanwahyu/clarify/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/clarify/internal/infra/db/mysql"
	"github.com/bryanwahyu/clarify/internal/infra/db/postgres"
	"github.com/bryanwahyu/clarify/internal/infra/httpserver"
	"github.com/bryanwahyu/clarify/internal/infra/speech/elevenlabs"
	"github.com/bryanwahyu/clarify/internal/infra/storage"
	"github.com/bryanwahyu/clarify/internal/logger"
	"github.com/bryanwahyu/clarify/internal/middleware"
)

type repositories struct {
	records       homework.Repository
	conversations conversation.Repository
	pinger        middleware.Pinger
	db            *sql.DB
}

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Production)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		log.Fatal("database init error", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	if repos.db != nil {
		defer repos.db.Close()
	}

	store, checks, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("storage init error", zap.String("provider", cfg.Storage.Provider), zap.Error(err))
	}
	checks["database"] = middleware.PingChecker{Target: repos.pinger}

	client, closeAI, err := openAI(ctx, cfg)
	if err != nil {
		log.Fatal("ai init error", zap.String("provider", cfg.AI.Provider), zap.Error(err))
	}
	defer closeAI()

	tts := elevenlabs.New(elevenlabs.Config{
		APIKey:          cfg.Speech.APIKey,
		BaseURL:         cfg.Speech.BaseURL,
		VoiceID:         cfg.Speech.VoiceID,
		ModelID:         cfg.Speech.ModelID,
		Stability:       cfg.Speech.Stability,
		SimilarityBoost: cfg.Speech.SimilarityBoost,
		Timeout:         cfg.Speech.Timeout,
	})

	metrics := middleware.NewMetrics()
	svc := &apphw.Service{
		AI:                appai.NewService(client, log.Named("ai"), cfg.AI.Timeout),
		Speech:            tts,
		Records:           repos.records,
		Conversations:     repos.conversations,
		Store:             store,
		Clock:             application.SystemClock{},
		Log:               log.Named("homework"),
		Metrics:           metrics,
		BackgroundTimeout: cfg.Session.BackgroundTimeout,
		UploadImages:      cfg.Storage.UploadImages,
	}

	sessions, err := apphw.NewSessionStore(cfg.Session.CacheSize)
	if err != nil {
		log.Fatal("session store init error", zap.Error(err))
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond)
	defer limiter.Stop()

	handler := httpserver.NewRouter(httpserver.Deps{
		Homework:      svc,
		Sessions:      sessions,
		Metrics:       metrics,
		Limiter:       limiter,
		Log:           log.Named("http"),
		Health:        checks,
		APIKeys:       cfg.Auth.APIKeys,
		CORSOrigins:   cfg.Server.CORSOrigins,
		MaxImageBytes: cfg.Server.MaxImageBytes,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// run server
	go func() {
		log.Info("server listening",
			zap.String("addr", addr),
			zap.String("ai", client.Name()),
			zap.String("database", cfg.Database.Driver),
			zap.String("storage", cfg.Storage.Provider),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	// in-flight background work is abandoned with its sessions
	sessions.Purge()
}

func openRepositories(ctx context.Context, cfg *config.Config) (repositories, error) {
	switch cfg.Database.Driver {
	case "memory":
		records := memory.NewHomeworkRepository()
		return repositories{records: records, conversations: memory.NewConversationRepository(), pinger: records}, nil

	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return repositories{}, err
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return repositories{}, err
		}
		records := mysqlp.NewHomeworkRepository(db)
		return repositories{records: records, conversations: mysqlp.NewConversationRepository(db), pinger: records, db: db}, nil

	default: // postgres | pgx
		db, err := postgres.Connect(ctx, cfg.Database.Driver, cfg.PostgresDSN())
		if err != nil {
			return repositories{}, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return repositories{}, err
		}
		records := postgres.NewHomeworkRepository(db)
		return repositories{records: records, conversations: postgres.NewConversationRepository(db), pinger: records, db: db}, nil
	}
}

func openStore(ctx context.Context, cfg *config.Config) (homework.ObjectStore, map[string]middleware.HealthChecker, error) {
	s := cfg.Storage
	checks := map[string]middleware.HealthChecker{}
	if s.Provider == "s3" {
		store, err := storage.NewS3(ctx, storage.S3Config{
			Endpoint:      s.Endpoint,
			Region:        s.Region,
			AccessKey:     s.AccessKey,
			SecretKey:     s.SecretKey,
			BucketName:    s.BucketName,
			PublicBaseURL: s.PublicBaseURL,
		})
		return store, checks, err
	}

	store, err := storage.New(ctx, s.Endpoint, s.Region, s.BucketName, s.AccessKey, s.SecretKey, s.UseSSL, s.PublicBaseURL)
	if err != nil {
		return nil, nil, err
	}
	checks["storage"] = middleware.PingChecker{Target: store}
	return store, checks, nil
}

func openAI(ctx context.Context, cfg *config.Config) (ai.Client, func(), error) {
	if cfg.AI.Provider == "openai" {
		model := cfg.AI.Model
		if model == "" {
			model = openai.DefaultModel
		}
		if cfg.AI.BaseURL != "" {
			return openai.NewClientWithBaseURL(cfg.AI.APIKey, cfg.AI.BaseURL, model), func() {}, nil
		}
		return openai.NewClient(cfg.AI.APIKey, model), func() {}, nil
	}

	model := cfg.AI.Model
	if model == "" {
		model = gemini.DefaultModel
	}
	client, err := gemini.NewClient(ctx, cfg.AI.APIKey, model)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}
