package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sala-api/internal/models"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sala.db")
	db, err := Connect("sqlite://" + path)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	require.True(t, db.Migrator().HasTable(&models.Course{}))
	require.True(t, db.Migrator().HasTable(&models.Grade{}))
	require.True(t, db.Migrator().HasTable(&models.Attendance{}))
}

func TestConnectRejectsEmptyDSN(t *testing.T) {
	_, err := Connect("  ")
	require.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client, err := ConnectRedis(context.Background(), "redis://"+mini.Addr(), time.Second)
	require.NoError(t, err)
	defer client.Close()

	_, err = ConnectRedis(context.Background(), "", time.Second)
	require.Error(t, err)
}
