package db

import (
	"fmt" // Error formatting

	"srq_assessment/internal/config" // Custom import path (Config)

	"gorm.io/driver/mysql"    // MySQL driver for GORM
	"gorm.io/driver/postgres" // PostgreSQL driver for GORM
	"gorm.io/driver/sqlite"   // SQLite driver for GORM
	"gorm.io/gorm"            // GORM ORM library
	"gorm.io/gorm/logger"     // GORM logger
)

// Open connects to the database selected by cfg.DBDriver
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN() + "?_foreign_keys=on")
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	gormLogger := logger.Default.LogMode(logger.Warn) // Quiet by default
	if !cfg.IsProd && cfg.LogLevel == "debug" {
		gormLogger = logger.Default.LogMode(logger.Info) // Log every statement while debugging
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger, // Statement logging
		TranslateError: true,       // Map unique violations to gorm.ErrDuplicatedKey
	})
}
