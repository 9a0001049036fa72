package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestHealth(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, Health(db))
}

func TestHealthNilHandle(t *testing.T) {
	assert.Error(t, Health(nil))
}

func TestHealthClosedConnection(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Close(db))
	assert.Error(t, Health(db))
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "posts", "connections", "comments", "notifications"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s should exist after migration", table)
	}
}
