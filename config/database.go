package config

import (
	"fmt"

	"github.com/tavrezsi/tavrezsi-api/logger"
	"github.com/tavrezsi/tavrezsi-api/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// ConnectDatabase opens the database selected by cfg.DBDriver and stores it globally
func ConnectDatabase(cfg *Config) error {
	var (
		db  *gorm.DB
		err error
	)

	switch cfg.DBDriver {
	case DriverSQLite:
		db, err = OpenSQLite(cfg.SQLitePath)
	default:
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), gormConfig(cfg))
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	logger.Named("database").Info("database connection established", zap.String("driver", cfg.DBDriver))
	return nil
}

// OpenSQLite opens a SQLite database with foreign keys enforced. The pool is
// limited to a single connection so ":memory:" databases are shared.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// MigrateDatabase creates or updates every table
func MigrateDatabase(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (used by tests)
func SetDB(db *gorm.DB) {
	DB = db
}

func gormConfig(cfg *Config) *gorm.Config {
	level := gormlogger.Warn
	if cfg.IsProduction() {
		level = gormlogger.Error
	}
	return &gorm.Config{Logger: gormlogger.Default.LogMode(level)}
}
