package repository

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"iplocator/internal/config"
	"iplocator/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// IsPostgres reports whether the connection string targets PostgreSQL.
func IsPostgres(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "postgres")
}

func InitDB(cfg config.Config) (*gorm.DB, error) {
	var dialer gorm.Dialector
	sqliteDB := false
	if IsPostgres(cfg.DatabaseURL) {
		dsn, err := PostgresDSN(cfg.DatabaseURL, cfg.DatabaseSSLRequired)
		if err != nil {
			return nil, err
		}
		dialer = postgres.Open(dsn)
	} else if strings.HasPrefix(cfg.DatabaseURL, "sqlite") {
		dialer = sqlite.Open(strings.TrimPrefix(cfg.DatabaseURL, "sqlite://"))
		sqliteDB = true
	} else {
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DatabaseURL)
	}

	logLevel := logger.Warn
	if cfg.DebugEnabled {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialer, &gorm.Config{Logger: logger.Default.LogMode(logLevel)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	maxOpen := cfg.DatabaseMaxPoolSize
	if maxOpen <= 0 {
		maxOpen = 10
	}
	if sqliteDB {
		// sqlite serialises writers; one connection also keeps :memory: databases shared.
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetConnMaxIdleTime(30 * time.Second)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// PostgresDSN adds sslmode=require when SSL is mandatory and the URL does not
// already choose a mode.
func PostgresDSN(databaseURL string, sslRequired bool) (string, error) {
	if !sslRequired {
		return databaseURL, nil
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid database url: %w", err)
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// AutoMigrate creates the schema for non-postgres databases, which have no
// SQL migration files.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Visit{}, &models.Admin{}, &models.Session{}, &models.AuditLog{})
}

func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func RunMigrations(databaseURL string, sourcePath string) error {
	if sourcePath == "" {
		sourcePath = "file://migration"
	}
	m, err := migrate.New(
		sourcePath,
		databaseURL,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run up migrations: %w", err)
	}

	slog.Info("Database migrations ran successfully", "source", sourcePath)
	return nil
}
