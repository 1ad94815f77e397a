package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkce-labs/vivalab-backend/internal/config"
	"github.com/mkce-labs/vivalab-backend/internal/database"
	"github.com/mkce-labs/vivalab-backend/internal/generator"
	"github.com/mkce-labs/vivalab-backend/internal/handler"
	"github.com/mkce-labs/vivalab-backend/internal/logger"
	"github.com/mkce-labs/vivalab-backend/internal/repository"
	"github.com/mkce-labs/vivalab-backend/internal/roster"
	"github.com/mkce-labs/vivalab-backend/internal/router"
	"github.com/mkce-labs/vivalab-backend/internal/service"
	"github.com/mkce-labs/vivalab-backend/internal/store"
	"github.com/mkce-labs/vivalab-backend/internal/validator"
	"github.com/mkce-labs/vivalab-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("timezone", cfg.Timezone).
		Msg("Starting VivaLab Backend")

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

	// ─── Roster Spreadsheet ────────────────────────────────────────────
	// The roster is best-effort: without credentials the server still runs,
	// registration skips the roster gate and mark export drops its jobs.
	var rosterStore roster.Store = roster.Unavailable{}
	if cfg.SheetsCredentialsPath != "" && cfg.StudentSheetID != "" {
		sheetsStore, err := roster.NewSheetsStore(ctx, cfg.SheetsCredentialsPath, cfg.StudentSheetID, cfg.TeacherSheetID, log)
		if err != nil {
			log.Warn().Err(err).Msg("Sheets client init failed, roster features disabled")
		} else {
			rosterStore = sheetsStore
		}
	} else {
		log.Warn().Msg("Roster spreadsheet not configured, roster features disabled")
	}

	// ─── Question Generation Backend ───────────────────────────────────
	var backend generator.TextGenerator = generator.Unavailable{}
	if cfg.PerplexityAPIKey != "" {
		backend = generator.NewPerplexityClient(cfg.PerplexityAPIURL, cfg.PerplexityModel, cfg.PerplexityAPIKey, cfg.GenerateTimeout)
	} else {
		log.Warn().Msg("PERPLEXITY_API_KEY not set, serving template questions only")
	}
	gen := generator.New(backend, log)

	// ─── Question Store ────────────────────────────────────────────────
	var questionStore store.QuestionStore
	var memStore *store.MemoryStore
	if cfg.QuestionStore == "memory" {
		memStore = store.NewMemoryStore()
		questionStore = memStore
	} else {
		questionStore = store.NewRedisStore(rdb, cfg.QuestionRetention)
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	teacherRepo := repository.NewTeacherRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	scheduleRepo := repository.NewScheduleRepository(pool)
	sessionRepo := repository.NewVivaSessionRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	marksQueue := worker.NewRedisMarksQueue(rdb)

	authService := service.NewAuthService(cfg, rdb)
	studentService := service.NewStudentService(studentRepo, rosterStore, authService, log)
	teacherService := service.NewTeacherService(teacherRepo, authService, log)
	catalogService := service.NewCatalogService(catalogRepo, rosterStore, log)
	scheduleService := service.NewScheduleService(scheduleRepo, catalogRepo, cfg, log)
	resultsService := service.NewResultsService(sessionRepo, rosterStore, log)
	vivaService := service.NewVivaSessionService(
		sessionRepo, scheduleRepo, catalogRepo, studentRepo,
		questionStore, gen, marksQueue, cfg, log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService, studentService, teacherService),
		Viva:     handler.NewVivaHandler(vivaService),
		Catalog:  handler.NewCatalogHandler(catalogService),
		Schedule: handler.NewScheduleHandler(scheduleService),
		Results:  handler.NewResultsHandler(resultsService),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	exportWorker := worker.NewMarksExportWorker(rdb, rosterStore, log)
	go exportWorker.Start(workerCtx)

	if memStore != nil {
		sweepWorker := worker.NewStoreSweepWorker(memStore, cfg.QuestionRetention, log)
		go sweepWorker.Start(workerCtx)
	}

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

	// 2. Stop background workers and let the export queue drain.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
