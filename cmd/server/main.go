package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/priyankaksolves/student-exam-app/internal/config"
	"github.com/priyankaksolves/student-exam-app/internal/database"
	"github.com/priyankaksolves/student-exam-app/internal/handler"
	"github.com/priyankaksolves/student-exam-app/internal/judge"
	"github.com/priyankaksolves/student-exam-app/internal/logger"
	"github.com/priyankaksolves/student-exam-app/internal/proctor"
	"github.com/priyankaksolves/student-exam-app/internal/repository"
	"github.com/priyankaksolves/student-exam-app/internal/router"
	"github.com/priyankaksolves/student-exam-app/internal/service"
	"github.com/priyankaksolves/student-exam-app/internal/validator"
	"github.com/priyankaksolves/student-exam-app/internal/worker"
	"github.com/rs/zerolog"
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
		Msg("Starting Student Exam App")

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
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	attemptRepo := repository.NewStudentExamRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)

	// ─── Initialize External Clients ───────────────────────────────────
	judgeClient := judge.NewClient(
		cfg.JudgeBaseURL,
		cfg.JudgeAPIKey,
		cfg.JudgeAPIHost,
		cfg.JudgePollInterval,
		cfg.JudgeTimeout,
		log,
	)
	proctorClient := proctor.NewClient(cfg.ProctorBaseURL, cfg.ProctorEntity, cfg.ProctorLicenseKey, log)

	// ─── Initialize Services ──────────────────────────────────────────
	stateCache := service.NewRedisStateCache(rdb)
	expiryQueue := worker.NewExpiryQueue(rdb)

	authService := service.NewAuthService(cfg, rdb, userRepo)
	examService := service.NewExamService(examRepo, questionRepo, attemptRepo, rdb, log)
	questionService := service.NewQuestionService(questionRepo, examRepo, attemptRepo, examService)
	assignmentService := service.NewAssignmentService(attemptRepo, examRepo, userRepo, log)
	attemptService := service.NewAttemptService(
		attemptRepo,
		examRepo,
		questionRepo,
		answerRepo,
		expiryQueue,
		stateCache,
		log,
	)
	codeService := service.NewCodeService(
		attemptRepo,
		examRepo,
		questionRepo,
		submissionRepo,
		answerRepo,
		judgeClient,
		stateCache,
		rdb,
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Exam:       handler.NewExamHandler(examService),
		Question:   handler.NewQuestionHandler(questionService),
		Assignment: handler.NewAssignmentHandler(assignmentService),
		Attempt:    handler.NewAttemptHandler(attemptService, assignmentService, examService),
		Code:       handler.NewCodeHandler(codeService),
		Proctor:    handler.NewProctorHandler(proctorClient, cfg.FrontendURL),
		User:       handler.NewUserHandler(userRepo),
		WS:         handler.NewWSHandler(rdb, attemptService, stateCache, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autosaveWorker := worker.NewAutosaveWorker(answerRepo, rdb, log)
	expiryWorker := worker.NewExpiryWorker(attemptService, attemptRepo, expiryQueue, log)

	go autosaveWorker.Start(workerCtx)
	go expiryWorker.Start(workerCtx)

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
