package db

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	// Pure Go sqlite driver registered as "sqlite".
	_ "modernc.org/sqlite"
)

// Open connects to the configured backend, bootstraps the schema and returns
// a Store ready for use.
func Open(cfg Config, logger *logrus.Logger) (*Store, error) {
	logger.WithField("driver", cfg.Driver).Debug("Starting database setup")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dialector = &sqlite.Dialector{DriverName: "sqlite", DSN: cfg.dataSourceName()}
	default:
		dialector = postgres.Open(cfg.dataSourceName())
	}

	gormLogger := NewGormLogrusLogger(logger)
	if cfg.SlowThreshold > 0 {
		gormLogger.slowThreshold = cfg.SlowThreshold
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql pool: %w", err)
		}
		// sqlite allows a single writer; one connection keeps transactions serial.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Bootstrap(db); err != nil {
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	logger.Info("Database setup completed successfully")
	return NewStore(db, logger), nil
}
