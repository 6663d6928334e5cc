package db

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/orderdesk/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:db_client_test?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.Migrator().DropTable(&testModel{}))
	require.NoError(t, conn.AutoMigrate(&testModel{}))
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	conn := newTestDB(t)
	client := Wrap(conn, config.StoreDriverSQLite)

	ctx := context.Background()
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}))

	var count int64
	require.NoError(t, conn.Model(&testModel{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	require.NoError(t, conn.Model(&testModel{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "rollback should leave one record")
}

func TestPingAndDriver(t *testing.T) {
	client := Wrap(newTestDB(t), "")
	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, config.StoreDriverPostgres, client.Driver())
}

func TestNewRejectsMissingDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	require.Error(t, err)

	_, err = New(context.Background(), config.DBConfig{DSN: "x", Driver: "oracle"}, nil)
	require.Error(t, err)
}

func TestNewOpensSQLite(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{
		DSN:          "file:db_client_new?mode=memory&cache=shared",
		Driver:       config.StoreDriverSQLite,
		MaxOpenConns: 2,
	}, nil)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, config.StoreDriverSQLite, client.Driver())
	require.NoError(t, client.Exec(context.Background(), "SELECT 1").Error)
}
