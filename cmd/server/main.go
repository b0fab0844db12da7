package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/jugendwerk/aktionsabrechnung/internal/config"
	"github.com/jugendwerk/aktionsabrechnung/internal/export"
	"github.com/jugendwerk/aktionsabrechnung/internal/mail"
	"github.com/jugendwerk/aktionsabrechnung/internal/mileage"
	"github.com/jugendwerk/aktionsabrechnung/internal/rates"
	"github.com/jugendwerk/aktionsabrechnung/internal/repository"
	"github.com/jugendwerk/aktionsabrechnung/internal/server"
	"github.com/jugendwerk/aktionsabrechnung/internal/statement"
	"github.com/jugendwerk/aktionsabrechnung/internal/storage"
	"github.com/jugendwerk/aktionsabrechnung/internal/summary"
	"github.com/jugendwerk/aktionsabrechnung/pkg/database"
	"github.com/jugendwerk/aktionsabrechnung/pkg/utils"
)

func main() {
	// Load .env for local development; missing file is fine
	_ = gotenv.Load()

	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Aktionsabrechnung",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
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

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Create the data directory
	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	// Initialize repositories
	eventRepo := repository.NewEventRepository(db, logger)
	entryRepo := repository.NewEntryRepository(db, logger)
	exportRepo := repository.NewExportRepository(db, logger)

	// Initialize domain components. The configuration was validated at load
	// time, so the rate table and grant policy parse here.
	table, err := rates.NewTable(cfg.Rates)
	if err != nil {
		logger.Fatal("Failed to build rate table", zap.Error(err))
	}
	grantPolicy, err := statement.NewGrantPolicy(cfg.Grant)
	if err != nil {
		logger.Fatal("Failed to build grant policy", zap.Error(err))
	}

	calculator := mileage.NewCalculator(table)
	aggregator := summary.NewAggregator(logger)
	composer := statement.NewComposer(grantPolicy, logger)
	renderer := statement.NewPDFRenderer(cfg.Export.OrgName, logger)
	merger := statement.NewReceiptMerger(logger)
	excelWriter := export.NewExcelWriter(logger)
	storageManager := storage.NewManager(cfg.Storage.DataDir, logger)

	// Mail delivery is optional; without it exports stay on disk
	var mailer export.MailerInterface
	if cfg.Mail.Enabled {
		mailer = mail.NewSender(mail.Config{
			Host:          cfg.Mail.Host,
			Port:          cfg.Mail.Port,
			Username:      cfg.Mail.Username,
			Password:      cfg.Mail.Password,
			From:          cfg.Mail.From,
			TreasuryEmail: cfg.Mail.TreasuryEmail,
			SenderName:    cfg.Mail.SenderName,
		}, exportRepo, logger)
	}

	exporter := export.NewExporter(
		eventRepo,
		entryRepo,
		exportRepo,
		aggregator,
		composer,
		renderer,
		merger,
		excelWriter,
		storageManager,
		mailer,
		logger,
	)

	handlers := server.NewHandlers(
		eventRepo,
		entryRepo,
		exportRepo,
		storageManager,
		calculator,
		aggregator,
		table,
		exporter,
		logger,
	)

	// Set Gin mode based on logger level
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := server.NewRouter(handlers, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
