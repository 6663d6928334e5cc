package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/orderdesk/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no orders migration file found")

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CHECK (quantity > 0)",
		"CHECK (status IN ('Incomplete', 'Ready', 'Delivered'))",
		"CREATE INDEX IF NOT EXISTS idx_orders_delivery_at",
		"DROP TABLE IF EXISTS orders",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestRunAppliesMigrationsOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_run_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	ctx := context.Background()
	require.NoError(t, Run(ctx, Dialect(config.StoreDriverSQLite), sqlDB, "migrations", "up"))

	for _, table := range []string{"clients", "products", "orders"} {
		assert.True(t, conn.Migrator().HasTable(table), "missing table %s", table)
	}

	require.NoError(t, MigrateToVersion(ctx, Dialect(config.StoreDriverSQLite), sqlDB, "migrations", "20260101090000"))
	assert.False(t, conn.Migrator().HasTable("orders"))
	assert.True(t, conn.Migrator().HasTable("clients"))
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "create_things.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid migration filename")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Order Notes!", now)
	require.NoError(t, err)
	assert.Equal(t, "20260304050607_add_order_notes.sql", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "-- +goose Up"))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "Add Order Notes!", now)
	require.Error(t, err, "duplicate migration should fail")

	_, err = CreateSQLMigration(dir, "!!!", now)
	require.Error(t, err)
}

func TestDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", Dialect(config.StoreDriverSQLite))
	assert.Equal(t, "postgres", Dialect(config.StoreDriverPostgres))
}
