package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkce-labs/vivalab-backend/internal/config"
	"github.com/mkce-labs/vivalab-backend/internal/database"
	"github.com/mkce-labs/vivalab-backend/internal/logger"
	"github.com/mkce-labs/vivalab-backend/internal/repository"
	"github.com/mkce-labs/vivalab-backend/internal/roster"
	"github.com/mkce-labs/vivalab-backend/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if cfg.SheetsCredentialsPath == "" || cfg.TeacherSheetID == "" {
		log.Fatal().Msg("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_TEACHER_SHEET_ID must be set")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rosterStore, err := roster.NewSheetsStore(ctx, cfg.SheetsCredentialsPath, cfg.StudentSheetID, cfg.TeacherSheetID, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Sheets client")
	}

	catalogRepo := repository.NewCatalogRepository(pool)
	catalogService := service.NewCatalogService(catalogRepo, rosterStore, log)

	fmt.Println("=== Syncing Catalog from Teacher Spreadsheet ===")

	report, err := catalogService.SyncFromRoster(ctx)
	if err != nil {
		if errors.Is(err, roster.ErrUnavailable) {
			log.Fatal().Err(err).Msg("Spreadsheet unreachable")
		}
		log.Fatal().Err(err).Msg("Catalog sync failed")
	}

	fmt.Printf("Labs synced:        %d\n", report.Labs)
	fmt.Printf("Experiments synced: %d\n", report.Experiments)
	fmt.Printf("Rows skipped:       %d\n", report.Skipped)
}
