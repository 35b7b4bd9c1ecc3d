package persistence

import (
	"context"
	"fmt"

	"github.com/ecommerce/backend/internal/infrastructure/config"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the connection pool
type Database struct {
	DB     *gorm.DB
	Driver string
}

// DatabaseOption customizes gorm.Config before the connection opens
type DatabaseOption func(*gorm.Config)

// WithGormLogger routes statement logging through l
func WithGormLogger(l gormlogger.Interface) DatabaseOption {
	return func(c *gorm.Config) { c.Logger = l }
}

// NewDatabase opens postgres or sqlite according to cfg.Driver and pings it
func NewDatabase(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	gcfg := &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
	for _, opt := range opts {
		opt(gcfg)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN())
		gcfg.PrepareStmt = true
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// one writer at a time; sqlite serializes anyway
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Database{DB: db, Driver: cfg.Driver}, nil
}

// AutoMigrate creates the tables of every entity. Postgres deployments use
// the SQL migrations instead; this serves sqlite and tests.
func (d *Database) AutoMigrate(ctx context.Context) error {
	if err := d.DB.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks the connection, honoring ctx
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
