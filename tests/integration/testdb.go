//go:build integration

// Package integration runs the store and workflows against a real PostgreSQL
// started with testcontainers, schema applied by the embedded migrations.
//
//	go test -tags integration ./tests/integration/...
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ecommerce/backend/internal/infrastructure/migration"
)

var (
	sharedOnce sync.Once
	sharedDSN  string
	sharedErr  error
	shared     testcontainers.Container
)

// TestDB is a migrated connection to the shared container
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	DSN   string
	t     *testing.T
}

func startContainer(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("shop_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("start postgres container: %w", err)
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	return container, dsn, nil
}

// NewTestDB connects to the shared container, migrates it once and empties
// every table before handing it out.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	sharedOnce.Do(func() {
		shared, sharedDSN, sharedErr = startContainer(context.Background())
	})
	require.NoError(t, sharedErr)

	tdb := Connect(t, sharedDSN)
	m, err := migration.New(tdb.SqlDB, zaptest.NewLogger(t), migration.Options{})
	require.NoError(t, err)
	require.NoError(t, m.Up())

	tdb.CleanTables()
	return tdb
}

// Connect opens a gorm handle configured like the server's
func Connect(t *testing.T, dsn string) *TestDB {
	t.Helper()
	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(level),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)

	t.Cleanup(func() { _ = sqlDB.Close() })
	return &TestDB{DB: db, SqlDB: sqlDB, DSN: dsn, t: t}
}

// CleanTables truncates every application table and resets the sequences
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()
	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err)
	for _, table := range tables {
		require.NoError(tdb.t, tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %q RESTART IDENTITY CASCADE", table)).Error)
	}
}

// TerminateShared stops the container; call it from TestMain
func TerminateShared() {
	if shared == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = shared.Terminate(ctx)
}
