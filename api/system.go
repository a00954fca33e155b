package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"backend_extintores/database"
	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SystemAPI проверка состояния и резервное копирование
type SystemAPI struct {
	handlerBase
	db        *gorm.DB
	cache     *services.CacheService
	backupDir string
	version   string
}

// NewSystemAPI создает новый экземпляр SystemAPI
func NewSystemAPI(base handlerBase, db *gorm.DB, cache *services.CacheService, backupDir, version string) *SystemAPI {
	return &SystemAPI{handlerBase: base, db: db, cache: cache, backupDir: backupDir, version: version}
}

// Health GET /health
func (api *SystemAPI) Health(c *gin.Context) {
	status, code := "ok", http.StatusOK

	dbStatus := "connected"
	if sqlDB, err := api.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbStatus, status, code = "unavailable", "degraded", http.StatusServiceUnavailable
	}

	cacheBackend := "none"
	if api.cache != nil {
		cacheBackend = api.cache.Backend()
	}

	c.JSON(code, gin.H{
		"status":    status,
		"version":   api.version,
		"database":  dbStatus,
		"driver":    api.db.Dialector.Name(),
		"cache":     cacheBackend,
		"timestamp": timestamp(),
	})
}

// Backup POST /api/sistema/backup; только для SQLite
func (api *SystemAPI) Backup(c *gin.Context) {
	path, err := database.Backup(api.db, api.backupDir, time.Now())
	if err != nil {
		if errors.Is(err, database.ErrBackupUnsupported) {
			api.respondError(c, services.NewConflictError("El respaldo solo está disponible con SQLite", err))
			return
		}
		api.respondError(c, services.NewInternalError(err))
		return
	}

	file := filepath.Base(path)
	api.record(c, models.ActionBackup, models.EntitySystem, "", "Respaldo de base de datos creado",
		map[string]interface{}{"archivo": file})
	respondCreated(c, gin.H{"archivo": file}, "Respaldo creado")
}
