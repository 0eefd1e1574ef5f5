package bootstrap

import (
	"context"
	"fmt"
	"os"

	"go-medical-appointment/internal/infrastructure/database"
	"go-medical-appointment/internal/repository"
	"go-medical-appointment/internal/service"
	"go-medical-appointment/internal/usecase"
)

// MigrateUp applies all pending schema migrations.
func MigrateUp() error {
	cfg, _, err := loadBase()
	if err != nil {
		return err
	}
	return database.MigrateUp(cfg.DB)
}

// MigrateDown rolls back steps schema migrations.
func MigrateDown(steps int) error {
	cfg, _, err := loadBase()
	if err != nil {
		return err
	}
	return database.MigrateDown(cfg.DB, steps)
}

// SeedCatalog upserts the analysis catalog from a YAML file.
func SeedCatalog(ctx context.Context, path string) (int64, error) {
	cfg, log, err := loadBase()
	if err != nil {
		return 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	db, err := database.NewPostgresConnection(cfg.DB, cfg.IsProduction())
	if err != nil {
		return 0, fmt.Errorf("failed to connect to database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Seeding touches only the catalog; the cache, storage and broker stay unset.
	analysisUsecase := usecase.NewAnalysisUsecase(
		db,
		log,
		repository.NewAnalysisRepository(db),
		repository.NewPatientAnalysisRepository(),
		repository.NewPatientProfileRepository(),
		repository.NewAppointmentRepository(),
		service.NewAuditService(log, repository.NewAuditLogRepository()),
		nil,
		nil,
		nil,
	)

	return analysisUsecase.SeedCatalog(ctx, f)
}
