package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/Newrona-pi/AUTO-Call/internal/auth"
	"github.com/Newrona-pi/AUTO-Call/internal/callflow"
	"github.com/Newrona-pi/AUTO-Call/internal/calls"
	"github.com/Newrona-pi/AUTO-Call/internal/config"
	"github.com/Newrona-pi/AUTO-Call/internal/reporting"
	"github.com/Newrona-pi/AUTO-Call/internal/routing"
	"github.com/Newrona-pi/AUTO-Call/internal/survey"
	"github.com/Newrona-pi/AUTO-Call/internal/telephony"
	"github.com/Newrona-pi/AUTO-Call/internal/transcribe"
	"github.com/Newrona-pi/AUTO-Call/pkg/logger"
	"github.com/Newrona-pi/AUTO-Call/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis only backs transcription-job dedupe; the service boots without it.
	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
	} else {
		log.Warn("redis not configured, transcription dedupe disabled")
	}

	surveys := survey.NewPostgresRepo(db)
	ledger := calls.NewPostgresLedger(db)
	twilioClient := telephony.NewClient(cfg.Twilio.APIBaseURL, cfg.Twilio.AccountSID, cfg.Twilio.AuthToken)

	pipeline := &transcribe.Pipeline{
		Recordings:   twilioClient,
		Whisper:      transcribe.NewWhisperClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Language),
		Ledger:       ledger,
		Redis:        rdb,
		MaxAttempts:  cfg.Survey.DownloadMaxAttempts,
		InitialDelay: cfg.Survey.DownloadInitialDelay,
	}

	engine := callflow.NewEngine(surveys, ledger, routing.NewResolver(surveys), twilioClient, pipeline, callflow.Settings{
		Language:              cfg.Survey.SpeakLanguage,
		MaxRecordingSeconds:   cfg.Survey.MaxRecordingSeconds,
		MessageSilenceTimeout: cfg.Survey.MessageSilenceTimeout,
		GatherTimeoutSeconds:  cfg.Survey.GatherTimeoutSeconds,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, deps{
		db:        db,
		auth:      authManager,
		engine:    engine,
		surveys:   surveys,
		ledger:    ledger,
		reporting: reporting.NewService(ledger),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
