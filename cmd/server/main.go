package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/arjunalabs/arjuna-backend/internal/config"
	"github.com/arjunalabs/arjuna-backend/internal/database"
	"github.com/arjunalabs/arjuna-backend/internal/exam"
	"github.com/arjunalabs/arjuna-backend/internal/handler"
	"github.com/arjunalabs/arjuna-backend/internal/logger"
	"github.com/arjunalabs/arjuna-backend/internal/proctor"
	"github.com/arjunalabs/arjuna-backend/internal/question"
	"github.com/arjunalabs/arjuna-backend/internal/repository"
	"github.com/arjunalabs/arjuna-backend/internal/router"
	"github.com/arjunalabs/arjuna-backend/internal/service"
	"github.com/arjunalabs/arjuna-backend/internal/validator"
	"github.com/arjunalabs/arjuna-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Arjuna Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	// ─── Question Source ───────────────────────────────────────────────
	// Generated questions with a built-in bank as fallback. Without an API
	// key the bank serves alone.
	bank := question.NewBank()
	var source question.Source = bank
	if cfg.GeminiAPIKey != "" {
		generator := question.NewGenerator(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.QuestionTimeout, log)
		source = question.NewFallback(generator, bank, log)
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, serving bank questions only")
	}

	// ─── Initialize Services ───────────────────────────────────────────
	examPolicy := exam.DefaultPolicy()
	examPolicy.DefaultTotalQuestions = cfg.TotalQuestions

	engine := exam.NewEngine(source, examPolicy, log)

	authService := service.NewAuthService(cfg, rdb, userRepo)
	examService := service.NewExamService(engine, proctor.DefaultPolicy(), reportRepo, rdb, log)

	// ─── Initialize Handlers ───────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Exam:      handler.NewExamHandler(examService),
		ProctorWS: handler.NewProctorWSHandler(rdb, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ──────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	cheatWorker := worker.NewCheatWorker(pool, rdb, log)
	reportWorker := worker.NewReportWorker(reportRepo, rdb, log)

	go cheatWorker.Start(workerCtx)
	go reportWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
