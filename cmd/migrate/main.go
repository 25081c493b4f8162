package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/loomworks/backend/internal/infrastructure/config"
	"github.com/loomworks/backend/internal/infrastructure/logger"
	"github.com/loomworks/backend/internal/infrastructure/persistence"
	"github.com/loomworks/backend/internal/infrastructure/persistence/models"
)

// migrationModels lists every persisted table in dependency order.
var migrationModels = []interface{}{
	&models.CompanyModel{},
	&models.ManufacturingOrderModel{},
	&models.OrderPaymentModel{},
	&models.OrderDocumentModel{},
}

func main() {
	var (
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun   = flag.Bool("dry-run", false, "Print the tables that would be migrated without touching the database")
	)
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if flag.NArg() > 0 {
		printUsage()
		os.Exit(1)
	}

	if *dryRun {
		for _, m := range migrationModels {
			log.Info("Would migrate", zap.String("model", fmt.Sprintf("%T", m)))
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	log.Info("Running schema migration",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
		zap.Int("models", len(migrationModels)),
	)

	if err := db.DB.AutoMigrate(migrationModels...); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	log.Info("Migration completed successfully")
}

func printUsage() {
	fmt.Println(`Usage: migrate [options]

Applies the database schema for all persisted models using GORM AutoMigrate.
Connection settings come from config.yaml or LOOMWORKS_* environment variables.

Options:
  -log-level string   Log level (debug, info, warn, error) (default "info")
  -dry-run            Print the tables that would be migrated without touching the database`)
}
