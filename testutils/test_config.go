package testutils

import (
	"path/filepath"
	"testing"
	"time"

	"backend_extintores/config"
)

// TestJWTSecret секрет подписи токенов в тестах
const TestJWTSecret = "test-secret-key-for-testing-only-0123456789"

// SetupTestConfig конфигурация для тестов: временные каталоги, без Redis и Telegram
func SetupTestConfig(t testing.TB) *config.Config {
	t.Helper()
	dir := t.TempDir()

	return &config.Config{
		App: config.AppConfigStruct{
			Env:     "test",
			Port:    "0",
			Version: "test",
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(dir, "test.db"),
		},
		JWT: config.JWTConfig{
			Secret:    TestJWTSecret,
			ExpiresIn: 24 * time.Hour,
			Issuer:    "backend_extintores_test",
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Origin", "Content-Type", "Authorization"},
		},
		Security: config.SecurityConfig{
			LoginRateLimitRequests: 1000,
			LoginRateLimitWindow:   time.Minute,
			MaxUploadSize:          5 * 1024 * 1024,
			RequestTimeout:         10 * time.Second,
			ResponseTimeout:        10 * time.Second,
		},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
		Storage: config.StorageConfig{
			UploadDir: filepath.Join(dir, "images"),
			QRDir:     filepath.Join(dir, "qr-codes"),
			BackupDir: filepath.Join(dir, "backups"),
		},
		Audit: config.AuditConfig{
			RetentionDays: 365,
			BufferSize:    64,
		},
		Alerts: config.AlertsConfig{
			HorizonDays:       30,
			DashboardCacheTTL: time.Minute,
		},
		Seed: config.SeedConfig{
			AdminName:     "Administrador",
			AdminEmail:    "admin@extintores.local",
			AdminPassword: "admin12345",
		},
	}
}
