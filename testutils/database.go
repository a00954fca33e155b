package testutils

import (
	"path/filepath"
	"testing"

	"backend_extintores/config"
	"backend_extintores/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB создает файловую SQLite в t.TempDir() с внешними ключами и всеми таблицами.
// Соединение закрывается автоматически по завершении теста
func SetupTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(sqlite.Open(config.SQLiteDSN(dbPath)), logger.Silent)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		CleanupTestDB(db)
	})
	return db
}

// CleanupTestDB закрывает соединение с тестовой БД
func CleanupTestDB(db *gorm.DB) {
	_ = database.Close(db)
}
