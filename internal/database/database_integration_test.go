package database

import (
	"context"
	"path/filepath"
	"testing"

	"certgen/config"
	"certgen/internal/logger"
	. "certgen/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNew_Success(t *testing.T) {
	testConfig := config.Config{
		DatabaseDbPath: ":memory:",
	}

	db, err := New(testConfig)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.NotNil(t, db.SQL)
	assert.Nil(t, db.Cache.Verification)
	assert.True(t, db.SQL.Migrator().HasTable(&GenerationRun{}))
	assert.True(t, db.SQL.Migrator().HasTable(&SkippedRow{}))
}

func TestNew_InvalidConfig(t *testing.T) {
	invalidConfig := config.Config{
		DatabaseDbPath:       "",
		DatabaseCacheAddress: "",
		DatabaseCachePort:    0,
	}

	_, err := New(invalidConfig)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database path is empty")
}

func TestNew_UnreachableCache(t *testing.T) {
	testConfig := config.Config{
		DatabaseDbPath:       ":memory:",
		DatabaseCacheAddress: "127.0.0.1",
		DatabaseCachePort:    1,
	}

	_, err := New(testConfig)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize cache database")
}

func TestInitializeSQLiteDB_File(t *testing.T) {
	db := &DB{
		log: logger.New("test"),
	}

	dbPath := filepath.Join(t.TempDir(), "nested", "runs.db")

	testConfig := config.Config{
		DatabaseDbPath: dbPath,
	}

	err := db.initializeSQLiteDB(&gorm.Config{}, testConfig)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.NotNil(t, db.SQL)
	assert.FileExists(t, dbPath)
}

func TestInitializeSQLiteDB_InMemorySharesOneDatabase(t *testing.T) {
	db := &DB{
		log: logger.New("test"),
	}

	testConfig := config.Config{
		DatabaseDbPath: ":memory:",
	}

	err := db.initializeSQLiteDB(&gorm.Config{}, testConfig)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.SQL.Exec("CREATE TABLE scratch (id INTEGER PRIMARY KEY)").Error)

	sqlDB, err := db.SQL.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	var count int64
	err = db.SQLWithContext(context.Background()).Table("scratch").Count(&count).Error
	assert.NoError(t, err)
}

func TestClose_WithNilSQL(t *testing.T) {
	db := &DB{
		log: logger.New("test"),
		SQL: nil,
	}

	assert.NoError(t, db.Close())
	assert.NoError(t, db.FlushAllCaches())
}

func TestCacheBuilder_NilClient(t *testing.T) {
	builder := NewCacheBuilder(nil, "Alice Smith_0").WithPrefix("verification")
	assert.Equal(t, "verification:Alice Smith_0", builder.Key())

	assert.NoError(t, builder.WithStruct(map[string]string{"a": "b"}).Set())

	var out map[string]string
	found, err := builder.Get(&out)
	assert.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, builder.Delete())
}
