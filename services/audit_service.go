package services

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"backend_extintores/models"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEntry данные одной записи аудита, передаваемые обработчиком после успешной операции
type AuditEntry struct {
	UserID      *uint
	Action      models.AuditAction
	EntityType  models.AuditEntity
	EntityID    string
	Description string
	IP          string
	UserAgent   string
	Details     map[string]interface{}
}

// AuditFilters фильтры для поиска аудит логов
type AuditFilters struct {
	UserID     *uint
	Action     string
	EntityType string
	EntityID   string
	StartDate  time.Time
	EndDate    time.Time
	IPAddress  string
	Page       int
	Limit      int
}

// AuditStats статистика аудит логов
type AuditStats struct {
	Period     string           `json:"period"`
	StartDate  time.Time        `json:"start_date"`
	EndDate    time.Time        `json:"end_date"`
	TotalLogs  int64            `json:"total_logs"`
	TopActions map[string]int64 `json:"top_actions"`
	TopUsers   map[uint]int64   `json:"top_users"`
}

// AuditService пишет журнал аудита асинхронно: одна горутина разбирает буферизованную очередь
type AuditService struct {
	db     *gorm.DB
	logger *logrus.Logger

	queue   chan models.AuditLog
	pending sync.WaitGroup
	done    chan struct{}

	mu     sync.RWMutex
	closed bool

	Now func() time.Time
}

// NewAuditService создает сервис аудита и запускает обработчик очереди
func NewAuditService(db *gorm.DB, logger *logrus.Logger, bufferSize int) *AuditService {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	as := &AuditService{
		db:     db,
		logger: logger,
		queue:  make(chan models.AuditLog, bufferSize),
		done:   make(chan struct{}),
		Now:    time.Now,
	}
	go as.worker()
	return as
}

// Record ставит запись в очередь и никогда не блокирует вызывающего
func (as *AuditService) Record(entry AuditEntry) {
	auditLog := models.AuditLog{
		UserID:      entry.UserID,
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		Description: entry.Description,
		IP:          entry.IP,
		UserAgent:   truncate(entry.UserAgent, 255),
		CreatedAt:   as.Now().UTC(),
	}
	if entry.EntityID != "" {
		id := entry.EntityID
		auditLog.EntityID = &id
	}

	// Сериализуем детали
	if entry.Details != nil {
		if detailsJSON, err := json.Marshal(entry.Details); err == nil {
			auditLog.Details = datatypes.JSON(detailsJSON)
		}
	}

	as.mu.RLock()
	defer as.mu.RUnlock()

	if as.closed {
		as.logger.WithField("accion", entry.Action).Warn("Сервис аудита остановлен, запись отброшена")
		return
	}

	as.pending.Add(1)
	select {
	case as.queue <- auditLog:
	default:
		as.pending.Done()
		as.logger.WithFields(logrus.Fields{
			"accion":       entry.Action,
			"tipo_entidad": entry.EntityType,
		}).Warn("Очередь аудита переполнена, запись отброшена")
	}
}

func (as *AuditService) worker() {
	defer close(as.done)
	for auditLog := range as.queue {
		as.write(auditLog)
		as.pending.Done()
	}
}

func (as *AuditService) write(auditLog models.AuditLog) {
	if err := as.db.Create(&auditLog).Error; err != nil {
		// Ошибка аудита не должна влиять на основную операцию
		as.logger.WithError(err).WithFields(logrus.Fields{
			"accion":       auditLog.Action,
			"tipo_entidad": auditLog.EntityType,
		}).Error("Failed to create audit log")
	}
}

// Flush ждет записи всех поставленных в очередь событий.
// Новые Record ждут окончания Flush, чтобы Add не пересекался с Wait
func (as *AuditService) Flush() {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.pending.Wait()
}

// Close останавливает прием записей и дожидается записи очереди
func (as *AuditService) Close() {
	as.mu.Lock()
	if as.closed {
		as.mu.Unlock()
		return
	}
	as.closed = true
	close(as.queue)
	as.mu.Unlock()

	<-as.done
}

// GetAuditLogs получает аудит логи с фильтрацией и пагинацией
func (as *AuditService) GetAuditLogs(filters AuditFilters) ([]models.AuditLog, models.Pagination, error) {
	query := as.filteredQuery(filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}

	page, limit := models.NormalizePage(filters.Page, filters.Limit)

	var logs []models.AuditLog
	if err := query.Preload("User").
		Order("created_at DESC").Order("id DESC").
		Offset(models.Offset(page, limit)).Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}

	return logs, models.NewPagination(page, limit, total), nil
}

func (as *AuditService) filteredQuery(filters AuditFilters) *gorm.DB {
	query := as.db.Model(&models.AuditLog{})

	// Применяем фильтры
	if filters.UserID != nil {
		query = query.Where("usuario_id = ?", *filters.UserID)
	}
	if filters.Action != "" {
		query = query.Where("accion = ?", filters.Action)
	}
	if filters.EntityType != "" {
		query = query.Where("tipo_entidad = ?", filters.EntityType)
	}
	if filters.EntityID != "" {
		query = query.Where("entidad_id = ?", filters.EntityID)
	}
	if !filters.StartDate.IsZero() {
		query = query.Where("created_at >= ?", filters.StartDate.UTC())
	}
	if !filters.EndDate.IsZero() {
		query = query.Where("created_at <= ?", filters.EndDate.UTC())
	}
	if filters.IPAddress != "" {
		query = query.Where("ip = ?", filters.IPAddress)
	}

	return query
}

// GetAuditStats получает статистику аудит логов за период day|week|month
func (as *AuditService) GetAuditStats(period string) (*AuditStats, error) {
	now := as.Now().UTC()

	var startDate time.Time
	switch period {
	case "day":
		startDate = now.AddDate(0, 0, -1)
	case "month":
		startDate = now.AddDate(0, -1, 0)
	default:
		period = "week"
		startDate = now.AddDate(0, 0, -7) // По умолчанию неделя
	}

	stats := &AuditStats{
		Period:     period,
		StartDate:  startDate,
		EndDate:    now,
		TopActions: make(map[string]int64),
		TopUsers:   make(map[uint]int64),
	}

	// Общее количество логов
	if err := as.db.Model(&models.AuditLog{}).
		Where("created_at >= ?", startDate).
		Count(&stats.TotalLogs).Error; err != nil {
		return nil, NewInternalError(err)
	}

	// Топ действий
	var topActions []struct {
		Accion string
		Count  int64
	}
	if err := as.db.Model(&models.AuditLog{}).
		Select("accion, COUNT(*) as count").
		Where("created_at >= ?", startDate).
		Group("accion").
		Order("count DESC").
		Limit(10).
		Scan(&topActions).Error; err != nil {
		return nil, NewInternalError(err)
	}
	for _, a := range topActions {
		stats.TopActions[a.Accion] = a.Count
	}

	// Топ пользователей
	var topUsers []struct {
		UsuarioID uint
		Count     int64
	}
	if err := as.db.Model(&models.AuditLog{}).
		Select("usuario_id, COUNT(*) as count").
		Where("created_at >= ? AND usuario_id IS NOT NULL", startDate).
		Group("usuario_id").
		Order("count DESC").
		Limit(10).
		Scan(&topUsers).Error; err != nil {
		return nil, NewInternalError(err)
	}
	for _, u := range topUsers {
		stats.TopUsers[u.UsuarioID] = u.Count
	}

	return stats, nil
}

// CleanupOldLogs удаляет аудит логи старше retentionDays; единственное место, где записи удаляются
func (as *AuditService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoffDate := as.Now().UTC().AddDate(0, 0, -retentionDays)

	result := as.db.Where("created_at < ?", cutoffDate).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	as.logger.WithFields(logrus.Fields{
		"deleted":        result.RowsAffected,
		"retention_days": retentionDays,
	}).Info("Cleaned up old audit logs")

	return result.RowsAffected, nil
}

// ExportAuditLogs экспортирует аудит логи в JSON (все страницы по фильтрам)
func (as *AuditService) ExportAuditLogs(filters AuditFilters) ([]byte, error) {
	var logs []models.AuditLog
	if err := as.filteredQuery(filters).
		Order("created_at DESC").Order("id DESC").
		Find(&logs).Error; err != nil {
		return nil, NewInternalError(err)
	}

	return json.MarshalIndent(logs, "", "  ")
}

// EntityID форматирует числовой идентификатор для журнала
func EntityID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
