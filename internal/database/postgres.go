package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/CyberPidgi/rentiful/internal/config"
	"github.com/CyberPidgi/rentiful/internal/models"
)

// DB shares one connection pool between gorm (entities, transactions) and
// sqlx (the raw listing search).
type DB struct {
	conn *sql.DB
	gorm *gorm.DB
	sqlx *sqlx.DB
}

func NewDB(cfg config.PostgresConfig, logLevel string) (*DB, error) {
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	return NewDBFromConn(conn, logLevel)
}

// NewDBFromConn wraps an open connection. Tests pass a sqlmock connection.
func NewDBFromConn(conn *sql.DB, logLevel string) (*DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger:                 logger.Default.LogMode(parseLogLevel(logLevel)),
		SkipDefaultTransaction: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	return &DB{
		conn: conn,
		gorm: gdb,
		sqlx: sqlx.NewDb(conn, "postgres"),
	}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema enables PostGIS and creates tables using GORM AutoMigrate
func (db *DB) InitSchema() error {
	if err := db.gorm.Exec("CREATE EXTENSION IF NOT EXISTS postgis").Error; err != nil {
		return fmt.Errorf("enable postgis: %w", err)
	}

	return db.gorm.AutoMigrate(
		&models.Manager{},
		&models.Tenant{},
		&models.Location{},
		&models.Property{},
		&models.PropertyTenant{},
		&models.TenantFavorite{},
		&models.Lease{},
		&models.Payment{},
		&models.Application{},
	)
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}
