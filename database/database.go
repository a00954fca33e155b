package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"backend_extintores/config"
	"backend_extintores/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect открывает подключение к БД согласно конфигурации, выполняет миграции и создает индексы
func Connect(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Database.Driver {
	case "postgres":
		// Создаем базу, если ее еще нет
		if err := CreateDatabaseIfNotExists(cfg.Database, log); err != nil {
			return nil, err
		}
		dialector = postgres.Open(cfg.GetDatabaseDSN())
	default:
		if dir := filepath.Dir(cfg.Database.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("не удалось создать каталог базы данных: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.GetDatabaseDSN())
	}

	level := logger.Warn
	if cfg.IsDevelopment() && cfg.App.Debug {
		level = logger.Info
	}

	db, err := Open(dialector, level)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	log.WithField("driver", cfg.Database.Driver).Info("✅ Успешно подключено к базе данных")

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("ошибка автомиграции: %w", err)
	}
	log.Info("✅ Автомиграция моделей выполнена успешно")

	CreatePerformanceIndexes(db, log)

	return db, nil
}

// Open создает *gorm.DB с переводом ошибок драйвера в ошибки gorm
func Open(dialector gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// Migrate выполняет автомиграцию всех моделей
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Сначала модели без зависимостей
		&models.User{},
		&models.Site{},
		&models.ExtinguisherType{},
		&models.Location{},
		&models.Extinguisher{},
		&models.MaintenanceEvent{},
		&models.AuditLog{},
		&models.NotificationLog{},
	)
}

// Close закрывает пул соединений
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
