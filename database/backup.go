package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"
)

// ErrBackupUnsupported резервная копия поддерживается только для SQLite
var ErrBackupUnsupported = errors.New("backup is only supported for sqlite")

// Backup делает согласованную копию файла SQLite через VACUUM INTO и возвращает путь к ней
func Backup(db *gorm.DB, dir string, now time.Time) (string, error) {
	if db.Dialector.Name() != "sqlite" {
		return "", ErrBackupUnsupported
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("не удалось создать каталог резервных копий: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("extintores_%s.db", now.UTC().Format("20060102_150405")))
	if err := db.Exec("VACUUM INTO ?", path).Error; err != nil {
		return "", fmt.Errorf("ошибка резервного копирования: %w", err)
	}

	return path, nil
}
