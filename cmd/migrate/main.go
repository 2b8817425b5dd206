package main

import (
	"database/sql"
	"os"

	"github.com/ruitoque/fronteras/configs"
	"github.com/ruitoque/fronteras/internal/migrations"

	_ "github.com/ClickHouse/clickhouse-go/v2" // ClickHouse driver
	"github.com/pressly/goose/v3"
)

func main() {
	cfg := configs.AppLoad()
	logger := configs.NewLogger(cfg.LogLevel)

	// Connect using native ClickHouse driver
	db, err := sql.Open("clickhouse", cfg.RunHistory.DSN)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.WithError(err).Error("Failed to ping database")
		os.Exit(1)
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(logger)
	if err := goose.SetDialect("clickhouse"); err != nil {
		logger.WithError(err).Error("Goose: failed to set dialect")
		os.Exit(1)
	}

	logger.Info("Running database migrations...")
	if err := goose.Up(db, "."); err != nil {
		logger.WithError(err).Error("Goose migration failed")
		os.Exit(1)
	}

	logger.Info("Migrations completed successfully")
}
