// Command seed fills the database with a demo event and a handful of
// expense entries for local development.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/jugendwerk/aktionsabrechnung/internal/config"
	"github.com/jugendwerk/aktionsabrechnung/internal/mileage"
	"github.com/jugendwerk/aktionsabrechnung/internal/models"
	"github.com/jugendwerk/aktionsabrechnung/internal/rates"
	"github.com/jugendwerk/aktionsabrechnung/internal/repository"
	"github.com/jugendwerk/aktionsabrechnung/pkg/database"
	"github.com/jugendwerk/aktionsabrechnung/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      "info",
		OutputPath: "stdout",
		Format:     "console",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	table, err := rates.NewTable(cfg.Rates)
	if err != nil {
		logger.Fatal("Failed to build rate table", zap.Error(err))
	}
	calculator := mileage.NewCalculator(table)

	eventRepo := repository.NewEventRepository(db, logger)
	entryRepo := repository.NewEntryRepository(db, logger)

	event := &models.Event{
		Title:       "Sommerzeltlager Altensteig",
		Location:    "Altensteig",
		StartDate:   mustDate("2026-08-03"),
		EndDate:     mustDate("2026-08-14"),
		Treasurer:   "Jonas Keller",
		IBAN:        "DE89370400440532013000",
		Status:      models.EventStatusActive,
		MealDays:    264, // 22 participants x 12 days
		SubsidyDays: 264,
	}
	if err := eventRepo.Create(event); err != nil {
		logger.Fatal("Failed to create demo event", zap.Error(err))
	}
	logger.Info("Created demo event", zap.Int64("id", event.ID), zap.String("title", event.Title))

	entries := []*models.ExpenseEntry{
		{
			Category:      models.CategoryParticipationFees,
			Amount:        decimal.RequireFromString("2640.00"),
			Description:   "Teilnahmebeiträge 22 Personen",
			EntryDate:     mustDate("2026-07-20"),
			SubmitterName: "Jonas Keller",
			Status:        models.EntryStatusSubmitted,
		},
		{
			Category:      models.CategoryFood,
			Amount:        decimal.RequireFromString("812.37"),
			Description:   "Lebensmittel Großeinkauf Woche 1",
			EntryDate:     mustDate("2026-08-04"),
			SubmitterName: "Mara Schmitt",
			Status:        models.EntryStatusSubmitted,
		},
		{
			Category:      models.CategoryLodging,
			Amount:        decimal.RequireFromString("1450.00"),
			Description:   "Zeltplatzmiete",
			EntryDate:     mustDate("2026-08-03"),
			SubmitterName: "Jonas Keller",
			Status:        models.EntryStatusSubmitted,
		},
		{
			Category:      models.CategoryMaterials,
			Amount:        decimal.RequireFromString("86.90"),
			Description:   "Bastelmaterial und Seile",
			EntryDate:     mustDate("2026-08-05"),
			SubmitterName: "Mara Schmitt",
			Status:        models.EntryStatusDraft,
		},
	}

	// One mileage-based travel entry with a computed amount
	details := &models.MileageDetails{
		DistanceKm:  decimal.NewFromInt(250),
		VehicleType: "car",
		Passengers:  4,
		Surcharges:  []string{"material"},
	}
	result, err := calculator.CalculateEntry(details)
	if err != nil {
		logger.Fatal("Failed to calculate demo mileage", zap.Error(err))
	}
	entries = append(entries, &models.ExpenseEntry{
		Category:      models.CategoryTravel,
		Amount:        result.Amount,
		Description:   "Materialtransport Stuttgart - Altensteig und zurück",
		EntryDate:     mustDate("2026-08-03"),
		SubmitterName: "Timo Brand",
		Mileage:       details,
		Status:        models.EntryStatusSubmitted,
	})

	for _, entry := range entries {
		entry.EventID = event.ID
		if err := entry.Validate(); err != nil {
			logger.Fatal("Demo entry failed validation", zap.String("description", entry.Description), zap.Error(err))
		}
		if err := entryRepo.Create(entry); err != nil {
			logger.Fatal("Failed to create demo entry", zap.Error(err))
		}
	}

	logger.Info("Seed complete",
		zap.Int64("event_id", event.ID),
		zap.Int("entry_count", len(entries)))
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
