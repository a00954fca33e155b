package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.NotEmpty(t, cfg.JWT.Secret)
	assert.Equal(t, int64(5*1024*1024), cfg.Security.MaxUploadSize)
	assert.True(t, cfg.IsDevelopment())
	assert.Contains(t, cfg.GetDatabaseDSN(), "_foreign_keys=on")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:   "valid sqlite",
			mutate: func(c *Config) {},
		},
		{
			name:    "production without secret",
			mutate:  func(c *Config) { c.App.Env = "production"; c.JWT.Secret = "" },
			wantErr: true,
		},
		{
			name:    "production with short secret",
			mutate:  func(c *Config) { c.App.Env = "production"; c.JWT.Secret = "short" },
			wantErr: true,
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "mysql" },
			wantErr: true,
		},
		{
			name:    "postgres without name",
			mutate:  func(c *Config) { c.Database.Driver = "postgres"; c.Database.Name = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				App:      AppConfigStruct{Env: "development"},
				Database: DatabaseConfig{Driver: "sqlite", Path: "test.db", Name: "db", User: "u"},
				JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
				Security: SecurityConfig{MaxUploadSize: 1024},
				Audit:    AuditConfig{BufferSize: 10},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLoggerLevelAndFormat(t *testing.T) {
	logger := NewLogger(LoggingConfig{Level: "debug", Format: "text"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	_, ok := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)

	logger = NewLogger(LoggingConfig{Level: "nonsense"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	_, ok = logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}
