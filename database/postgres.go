package database

import (
	"database/sql"
	"fmt"

	"backend_extintores/config"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// CreateDatabaseIfNotExists создает базу данных PostgreSQL, если она не существует
func CreateDatabaseIfNotExists(cfg config.DatabaseConfig, log *logrus.Logger) error {
	// Подключаемся к PostgreSQL без указания конкретной БД (к postgres по умолчанию)
	adminDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=postgres sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.SSLMode)

	db, err := sql.Open("postgres", adminDSN)
	if err != nil {
		return fmt.Errorf("не удалось подключиться к PostgreSQL: %w", err)
	}
	defer db.Close()

	return ensureDatabase(db, cfg.Name, log)
}

func ensureDatabase(db *sql.DB, name string, log *logrus.Logger) error {
	// Проверяем подключение
	if err := db.Ping(); err != nil {
		return fmt.Errorf("не удалось проверить подключение к PostgreSQL: %w", err)
	}

	// Проверяем, существует ли база данных
	var exists bool
	query := "SELECT EXISTS(SELECT datname FROM pg_catalog.pg_database WHERE datname = $1);"
	if err := db.QueryRow(query, name).Scan(&exists); err != nil {
		return fmt.Errorf("ошибка при проверке существования базы данных: %w", err)
	}

	if exists {
		log.Infof("✅ База данных '%s' уже существует", name)
		return nil
	}

	// Имя базы нельзя передать параметром, поэтому экранируем как идентификатор
	createQuery := fmt.Sprintf("CREATE DATABASE %s;", pq.QuoteIdentifier(name))
	if _, err := db.Exec(createQuery); err != nil {
		return fmt.Errorf("не удалось создать базу данных '%s': %w", name, err)
	}

	log.Infof("✅ База данных '%s' успешно создана", name)
	return nil
}
