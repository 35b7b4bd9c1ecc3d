package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecommerce/backend/internal/infrastructure/config"
	"github.com/ecommerce/backend/internal/infrastructure/persistence/models"
)

func TestNewDatabase(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite file with migrations", func(t *testing.T) {
		db, err := NewDatabase(&config.DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "shop.db"),
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		assert.Equal(t, "sqlite", db.Driver)
		require.NoError(t, db.AutoMigrate(ctx))
		assert.True(t, db.DB.Migrator().HasTable("organizations"))
		assert.True(t, db.DB.Migrator().HasIndex(&models.Group{}, "idx_groups_name_organization"))
		assert.NoError(t, db.Ping(ctx))

		sqlDB, err := db.DB.DB()
		require.NoError(t, err)
		assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	})

	t.Run("unsupported driver", func(t *testing.T) {
		_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unsupported database driver "mysql"`)
	})

	t.Run("ping after close fails", func(t *testing.T) {
		db, err := NewDatabase(&config.DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "shop.db"),
		})
		require.NoError(t, err)
		require.NoError(t, db.Close())
		assert.Error(t, db.Ping(ctx))
	})
}
