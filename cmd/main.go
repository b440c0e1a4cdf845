package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pettopia/pettopia-server/cmd/api"
	"github.com/pettopia/pettopia-server/cmd/config"
	"github.com/pettopia/pettopia-server/cmd/models"
	"github.com/pettopia/pettopia-server/cmd/utils"
	"github.com/pettopia/pettopia-server/db"
	"github.com/pettopia/pettopia-server/service/community"
	"github.com/pettopia/pettopia-server/service/pets"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)

	// Check for command-line arguments
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrations(cfg, logger)
			return
		case "seed":
			runSeed(cfg, logger)
			return
		case "clear-db":
			runDatabaseClear(cfg, logger)
			return
		default:
			logger.Fatalf("Unknown command: %s", os.Args[1])
		}
	}

	startServer(cfg, logger)
}

func openDatabase(cfg config.Config, logger *logrus.Logger) (*gorm.DB, func()) {
	DB, err := db.NewPSQLStorage(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("database initialization error")
	}
	logger.Info("connected to the database")
	return DB, func() {
		if sqlDB, err := DB.DB(); err == nil {
			sqlDB.Close()
		}
		logger.Info("database connection closed")
	}
}

func runMigrations(cfg config.Config, logger *logrus.Logger) {
	DB, closeDB := openDatabase(cfg, logger)
	defer closeDB()

	logger.Info("starting database migrations")
	if err := db.Migrate(DB); err != nil {
		logger.WithError(err).Fatal("migration error")
	}
	logger.Info("migrations completed successfully")
}

func runSeed(cfg config.Config, logger *logrus.Logger) {
	DB, closeDB := openDatabase(cfg, logger)
	defer closeDB()

	seed := pets.SeedPets()
	if err := db.NewPetStore(DB).UpsertPets(context.Background(), seed); err != nil {
		logger.WithError(err).Fatal("seeding pets")
	}
	logger.WithField("pets", len(seed)).Info("seed completed")
}

func startServer(cfg config.Config, logger *logrus.Logger) {
	DB, closeDB := openDatabase(cfg, logger)
	defer closeDB()

	// Graceful shutdown setup
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cache community.SnapshotCache
	if cfg.RedisAddr != "" {
		redisCache, err := db.NewRedisCache(ctx, cfg.RedisAddr)
		if err != nil {
			logger.WithError(err).Warn("feed cache disabled")
		} else {
			defer redisCache.Close()
			cache = redisCache
			logger.WithField("addr", cfg.RedisAddr).Info("feed cache enabled")
		}
	}

	server := api.NewApiServer(cfg, DB, cache, logger)
	if err := server.Run(ctx); err != nil {
		logger.WithError(err).Error("server error")
	}
	logger.Info("server stopped")
}

func runDatabaseClear(cfg config.Config, logger *logrus.Logger) {
	DB, closeDB := openDatabase(cfg, logger)
	defer closeDB()

	var confirmation string
	fmt.Print("Are you sure you want to clear the database? (yes/no): ")
	fmt.Scanln(&confirmation)
	if confirmation != "yes" {
		logger.Info("database clearing cancelled")
		return
	}

	var tableNames string
	fmt.Print("Enter table names to clear (comma separated) or leave blank to clear all: ")
	fmt.Scanln(&tableNames)

	names := splitTableNames(tableNames)
	tables := db.Tables()
	if len(names) > 0 {
		tables = nil
	}
	for _, name := range names {
		switch name {
		case "Pet":
			tables = append(tables, &models.Pet{})
		case "FavoritePost":
			tables = append(tables, &models.FavoritePost{})
		case "ViewedPost":
			tables = append(tables, &models.ViewedPost{})
		default:
			logger.Warnf("Unknown table: %s", name)
		}
	}
	for _, table := range tables {
		if err := DB.Migrator().DropTable(table); err != nil {
			logger.WithError(err).Warnf("dropping table %T", table)
			continue
		}
		logger.Infof("table %T dropped", table)
	}
	logger.Info("database cleared")
}

func splitTableNames(tableNames string) []string {
	var names []string
	for _, name := range strings.Split(tableNames, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
