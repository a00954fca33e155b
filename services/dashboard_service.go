package services

import (
	"context"
	"fmt"
	"time"

	"backend_extintores/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DashboardCachePrefix префикс ключей кэша панели; сбрасывается при любой записи огнетушителей и обслуживания
const DashboardCachePrefix = "dashboard:"

const (
	// DefaultHorizonDays горизонт списка ближайших истечений по умолчанию
	DefaultHorizonDays = 60
	maxHorizonDays     = 365
	monthsInChart      = 12
)

// GroupCount количество огнетушителей в группе
type GroupCount struct {
	ID     string `json:"id"`
	Name   string `json:"nombre"`
	Detail string `json:"detalle,omitempty"`
	Count  int64  `json:"total"`
}

// MonthCount количество событий обслуживания за месяц
type MonthCount struct {
	Month string `json:"mes"` // YYYY-MM
	Count int64  `json:"total"`
}

// DashboardStats сводка для панели
type DashboardStats struct {
	Total              int64                     `json:"total"`
	ByStatus           map[string]int64          `json:"por_estado"`
	Expired            int64                     `json:"vencidos"`
	ExpiringSoon       int64                     `json:"por_vencer"`
	Current            int64                     `json:"vigentes"`
	MaintenanceDue     int64                     `json:"mantenimiento_pendiente"`
	ByType             []GroupCount              `json:"por_tipo"`
	ByLocation         []GroupCount              `json:"por_ubicacion"`
	HorizonDays        int                       `json:"horizonte_dias"`
	Upcoming           []models.ExtinguisherView `json:"proximos_vencimientos"`
	MaintenanceByMonth []MonthCount              `json:"mantenimientos_por_mes"`
	Date               string                    `json:"fecha"`
}

// DashboardService агрегаты для панели с кэшированием
type DashboardService struct {
	db     *gorm.DB
	cache  *CacheService
	ttl    time.Duration
	logger *logrus.Logger

	Now func() time.Time
}

// NewDashboardService создает сервис панели
func NewDashboardService(db *gorm.DB, cache *CacheService, ttl time.Duration, logger *logrus.Logger) *DashboardService {
	if ttl <= 0 {
		ttl = CacheTTLShort
	}
	return &DashboardService{db: db, cache: cache, ttl: ttl, logger: logger, Now: time.Now}
}

// GetStats возвращает сводку; horizonDays 0 означает значение по умолчанию
func (s *DashboardService) GetStats(ctx context.Context, horizonDays int) (*DashboardStats, error) {
	if horizonDays == 0 {
		horizonDays = DefaultHorizonDays
	}
	if horizonDays < 1 || horizonDays > maxHorizonDays {
		return nil, FieldError("horizonte_dias", fmt.Sprintf("Debe estar entre 1 y %d", maxHorizonDays))
	}

	today := models.DateOnly(s.Now())
	key := fmt.Sprintf("%sstats:%s:%d", DashboardCachePrefix, today.Format("2006-01-02"), horizonDays)

	if s.cache != nil {
		var cached DashboardStats
		if found, err := s.cache.GetJSON(ctx, key, &cached); err == nil && found {
			return &cached, nil
		}
	}

	stats, err := s.compute(today, horizonDays)
	if err != nil {
		return nil, NewInternalError(err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, stats, s.ttl); err != nil {
			s.logger.WithError(err).Warn("Не удалось сохранить статистику в кэш")
		}
	}
	return stats, nil
}

func (s *DashboardService) compute(today time.Time, horizonDays int) (*DashboardStats, error) {
	stats := &DashboardStats{
		ByStatus:    map[string]int64{},
		HorizonDays: horizonDays,
		Date:        today.Format("2006-01-02"),
	}

	if err := s.db.Model(&models.Extinguisher{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	// Статусы: vencido вычисляется из activo с истекшим сроком
	var statusRows []struct {
		Status string
		Count  int64
	}
	if err := s.db.Model(&models.Extinguisher{}).
		Select("estado AS status, COUNT(*) AS count").
		Group("estado").Scan(&statusRows).Error; err != nil {
		return nil, err
	}
	for _, row := range statusRows {
		stats.ByStatus[row.Status] = row.Count
	}

	active := func() *gorm.DB {
		return s.db.Model(&models.Extinguisher{}).Where("extintores.estado <> ?", models.StatusRetired)
	}
	if err := whereBucket(active(), models.BucketExpired, today).Count(&stats.Expired).Error; err != nil {
		return nil, err
	}
	if err := whereBucket(active(), models.BucketExpiringSoon, today).Count(&stats.ExpiringSoon).Error; err != nil {
		return nil, err
	}
	if err := whereBucket(active(), models.BucketCurrent, today).Count(&stats.Current).Error; err != nil {
		return nil, err
	}
	if err := whereMaintenanceDue(active(), true, today).Count(&stats.MaintenanceDue).Error; err != nil {
		return nil, err
	}

	var expiredActive int64
	if err := whereBucket(s.db.Model(&models.Extinguisher{}).Where("extintores.estado = ?", models.StatusActive),
		models.BucketExpired, today).Count(&expiredActive).Error; err != nil {
		return nil, err
	}
	if expiredActive > 0 {
		stats.ByStatus[string(models.StatusActive)] -= expiredActive
		stats.ByStatus[string(models.StatusExpired)] = expiredActive
	}

	if err := s.db.Model(&models.Extinguisher{}).
		Select("tipos_extintores.id AS id, tipos_extintores.nombre AS name, COUNT(extintores.id) AS count").
		Joins("JOIN tipos_extintores ON tipos_extintores.id = extintores.tipo_id").
		Group("tipos_extintores.id, tipos_extintores.nombre").
		Order("count DESC").Order("tipos_extintores.id ASC").
		Scan(&stats.ByType).Error; err != nil {
		return nil, err
	}

	var locationRows []struct {
		ID     uint
		Name   string
		Detail string
		Count  int64
	}
	if err := s.db.Model(&models.Extinguisher{}).
		Select("ubicaciones.id AS id, ubicaciones.nombre_area AS name, sedes.nombre AS detail, COUNT(extintores.id) AS count").
		Joins("JOIN ubicaciones ON ubicaciones.id = extintores.ubicacion_id").
		Joins("JOIN sedes ON sedes.id = ubicaciones.sede_id").
		Group("ubicaciones.id, ubicaciones.nombre_area, sedes.nombre").
		Order("count DESC").Order("ubicaciones.id ASC").
		Scan(&locationRows).Error; err != nil {
		return nil, err
	}
	stats.ByLocation = make([]GroupCount, 0, len(locationRows))
	for _, row := range locationRows {
		stats.ByLocation = append(stats.ByLocation, GroupCount{
			ID:     EntityID(row.ID),
			Name:   row.Name,
			Detail: row.Detail,
			Count:  row.Count,
		})
	}
	if stats.ByType == nil {
		stats.ByType = []GroupCount{}
	}

	upcoming, err := s.upcoming(today, horizonDays)
	if err != nil {
		return nil, err
	}
	stats.Upcoming = upcoming

	monthly, err := s.maintenanceByMonth(today)
	if err != nil {
		return nil, err
	}
	stats.MaintenanceByMonth = monthly

	return stats, nil
}

// Upcoming огнетушители (кроме retirado), срок которых истекает в ближайшие horizonDays дней
func (s *DashboardService) Upcoming(horizonDays int) ([]models.ExtinguisherView, error) {
	list, err := s.upcoming(models.DateOnly(s.Now()), horizonDays)
	if err != nil {
		return nil, NewInternalError(err)
	}
	return list, nil
}

func (s *DashboardService) upcoming(today time.Time, horizonDays int) ([]models.ExtinguisherView, error) {
	yesterday, _ := models.BucketRange(models.BucketExpiringSoon, today)
	until := today.AddDate(0, 0, horizonDays)

	var list []models.Extinguisher
	if err := s.db.Preload("Type").Preload("Location.Site").
		Where("estado <> ? AND fecha_vencimiento > ? AND fecha_vencimiento <= ?", models.StatusRetired, *yesterday, until).
		Order("fecha_vencimiento ASC").Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return models.NewExtinguisherViews(list, today), nil
}

// maintenanceByMonth события за последние 12 месяцев, включая текущий; пустые месяцы с нулем
func (s *DashboardService) maintenanceByMonth(today time.Time) ([]MonthCount, error) {
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(monthsInChart - 1), 0)

	var dates []time.Time
	if err := s.db.Model(&models.MaintenanceEvent{}).
		Where("fecha >= ?", start).
		Pluck("fecha", &dates).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, monthsInChart)
	for _, d := range dates {
		counts[d.UTC().Format("2006-01")]++
	}

	months := make([]MonthCount, 0, monthsInChart)
	for i := 0; i < monthsInChart; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		months = append(months, MonthCount{Month: key, Count: counts[key]})
	}
	return months, nil
}
