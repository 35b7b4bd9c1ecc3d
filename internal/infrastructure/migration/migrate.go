package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/ecommerce/backend/migrations"
)

// ErrDirty is returned when the schema is left half-applied and needs a force
var ErrDirty = errors.New("database is in a dirty migration state")

// Migrator applies the versioned SQL schema with golang-migrate
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// Options tune where migrations are read from
type Options struct {
	// Dir reads migrations from disk instead of the embedded set
	Dir string
	// Table overrides the schema_migrations bookkeeping table
	Table string
	// Verbose forwards golang-migrate's per-file output at debug level
	Verbose bool
}

// New builds a Migrator over an open postgres connection
func New(db *sql.DB, logger *zap.Logger, opts Options) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	src, err := openSource(opts.Dir)
	if err != nil {
		return nil, err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: opts.Table})
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("migrations", src, "postgres", driver)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &zapLogger{logger: logger.Named("migrate"), verbose: opts.Verbose}

	return &Migrator{migrate: m, logger: logger}, nil
}

func openSource(dir string) (source.Driver, error) {
	var fsys fs.FS = migrations.FS
	if dir != "" {
		fsys = dirFS(dir)
	}
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations source: %w", err)
	}
	return src, nil
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	m.logger.Info("Running migrations up")
	return m.finish("up", m.migrate.Up())
}

// Down rolls back every applied migration
func (m *Migrator) Down() error {
	m.logger.Warn("Rolling back all migrations")
	return m.finish("down", m.migrate.Down())
}

// Steps moves n migrations forward (n > 0) or back (n < 0)
func (m *Migrator) Steps(n int) error {
	if n == 0 {
		return errors.New("steps must be non-zero")
	}
	m.logger.Info("Running migration steps", zap.Int("steps", n))
	return m.finish("steps", m.migrate.Steps(n))
}

// GoTo migrates up or down to the given version
func (m *Migrator) GoTo(version uint) error {
	m.logger.Info("Migrating to version", zap.Uint("target", version))
	return m.finish("goto", m.migrate.Migrate(version))
}

// Version reports the applied version; zero with no error means a fresh database
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied without running it and clears the dirty flag
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("force version %d failed: %w", version, err)
	}
	return nil
}

// Close releases the source and database driver
func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}

func (m *Migrator) finish(op string, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("No migrations to apply", zap.String("op", op))
		return nil
	}
	var dirty migrate.ErrDirty
	if errors.As(err, &dirty) {
		return fmt.Errorf("%w: version %d", ErrDirty, dirty.Version)
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", op, err)
	}

	version, isDirty, verr := m.Version()
	if verr != nil {
		return verr
	}
	m.logger.Info("Migrations applied",
		zap.String("op", op),
		zap.Uint("version", version),
		zap.Bool("dirty", isDirty),
	)
	return nil
}

// zapLogger adapts golang-migrate's Printf logger
type zapLogger struct {
	logger  *zap.Logger
	verbose bool
}

func (l *zapLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *zapLogger) Verbose() bool {
	return l.verbose
}
