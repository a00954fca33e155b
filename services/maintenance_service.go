package services

import (
	"context"
	"errors"
	"time"

	"backend_extintores/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaintenanceInput данные нового события обслуживания
type MaintenanceInput struct {
	ExtinguisherID *uint
	Date           *time.Time
	EventType      *string
	Description    *string
	TechnicianID   *uint
	Evidence       *Upload
}

// MaintenanceFilters фильтры истории обслуживания
type MaintenanceFilters struct {
	ExtinguisherID uint
	TechnicianID   uint
	EventType      string
	From           *time.Time
	To             *time.Time
	Page           int
	Limit          int
}

// MaintenanceService история обслуживания огнетушителей
type MaintenanceService struct {
	db     *gorm.DB
	cache  *CacheService
	files  *FileStore
	logger *logrus.Logger

	Now func() time.Time
}

// NewMaintenanceService создает сервис обслуживания
func NewMaintenanceService(db *gorm.DB, cache *CacheService, files *FileStore, logger *logrus.Logger) *MaintenanceService {
	return &MaintenanceService{db: db, cache: cache, files: files, logger: logger, Now: time.Now}
}

// List возвращает страницу событий, новые сначала
func (s *MaintenanceService) List(filters MaintenanceFilters) ([]models.MaintenanceEvent, models.Pagination, error) {
	errs := fieldErrors{}
	if filters.EventType != "" && !models.ValidEventType(filters.EventType) {
		errs.add("tipo_evento", "Tipo de evento inválido")
	}
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		errs.add("hasta", "Debe ser posterior a desde")
	}
	if err := errs.err(); err != nil {
		return nil, models.Pagination{}, err
	}

	query := s.db.Model(&models.MaintenanceEvent{})
	if filters.ExtinguisherID != 0 {
		query = query.Where("extintor_id = ?", filters.ExtinguisherID)
	}
	if filters.TechnicianID != 0 {
		query = query.Where("tecnico_id = ?", filters.TechnicianID)
	}
	if filters.EventType != "" {
		query = query.Where("tipo_evento = ?", filters.EventType)
	}
	if filters.From != nil {
		query = query.Where("fecha >= ?", models.DateOnly(*filters.From))
	}
	if filters.To != nil {
		query = query.Where("fecha <= ?", models.DateOnly(*filters.To))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}

	page, limit := models.NormalizePage(filters.Page, filters.Limit)

	var events []models.MaintenanceEvent
	if err := query.Preload("Technician").Preload("Extinguisher").
		Order("fecha DESC").Order("id DESC").
		Offset(models.Offset(page, limit)).Limit(limit).
		Find(&events).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}

	return events, models.NewPagination(page, limit, total), nil
}

// ListForExtinguisher история одного огнетушителя; 404, если его нет
func (s *MaintenanceService) ListForExtinguisher(extinguisherID uint, page, limit int) ([]models.MaintenanceEvent, models.Pagination, error) {
	var count int64
	if err := s.db.Model(&models.Extinguisher{}).Where("id = ?", extinguisherID).Count(&count).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}
	if count == 0 {
		return nil, models.Pagination{}, NewNotFoundError("Extintor")
	}
	return s.List(MaintenanceFilters{ExtinguisherID: extinguisherID, Page: page, Limit: limit})
}

// GetByID возвращает событие
func (s *MaintenanceService) GetByID(id uint) (*models.MaintenanceEvent, error) {
	var event models.MaintenanceEvent
	if err := s.db.Preload("Technician").Preload("Extinguisher").First(&event, id).Error; err != nil {
		return nil, translateDBError(err, "Mantenimiento", "")
	}
	return &event, nil
}

// Create записывает событие. Для inspeccion и recarga в той же транзакции
// ultimo_mantenimiento становится max(текущее значение, дата события)
func (s *MaintenanceService) Create(in MaintenanceInput) (*models.MaintenanceEvent, error) {
	errs := fieldErrors{}
	event := &models.MaintenanceEvent{}
	today := models.DateOnly(s.Now())

	if in.ExtinguisherID == nil || *in.ExtinguisherID == 0 {
		errs.add("extintor_id", "Campo obligatorio")
	} else {
		event.ExtinguisherID = *in.ExtinguisherID
	}
	if in.Date == nil || in.Date.IsZero() {
		errs.add("fecha", "Campo obligatorio")
	} else {
		event.Date = models.DateOnly(*in.Date)
		if event.Date.After(today) {
			errs.add("fecha", "La fecha no puede ser futura")
		}
	}
	if in.EventType == nil || *in.EventType == "" {
		errs.add("tipo_evento", "Campo obligatorio")
	} else if !models.ValidEventType(*in.EventType) {
		errs.add("tipo_evento", "Tipo de evento inválido")
	} else {
		event.EventType = models.EventType(*in.EventType)
	}
	if in.Description != nil {
		event.Description = errs.optionalText("descripcion", *in.Description, 2000)
	}
	if in.TechnicianID != nil && *in.TechnicianID != 0 {
		event.TechnicianID = in.TechnicianID
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	var stored *StoredFile
	if in.Evidence != nil {
		var err error
		if stored, err = s.files.SaveImage("evidencia", in.Evidence); err != nil {
			return nil, err
		}
		event.EvidencePath = &stored.URLPath
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Extinguisher{}, event.ExtinguisherID, "extintor_id", "El extintor no existe"); err != nil {
			return err
		}
		if event.TechnicianID != nil {
			if err := requireExists(tx, &models.User{}, *event.TechnicianID, "tecnico_id", "El técnico no existe"); err != nil {
				return err
			}
		}
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		if !event.EventType.CountsAsMaintenance() {
			return nil
		}
		return tx.Model(&models.Extinguisher{}).
			Where("id = ? AND (ultimo_mantenimiento IS NULL OR ultimo_mantenimiento < ?)", event.ExtinguisherID, event.Date).
			Update("ultimo_mantenimiento", event.Date).Error
	})
	if err != nil {
		s.files.RemoveStored(stored)
		return nil, translateDBError(err, "Mantenimiento", "")
	}

	s.invalidate()
	return s.GetByID(event.ID)
}

// Delete удаляет событие. Если ultimo_mantenimiento совпадал с его датой,
// значение пересчитывается по оставшимся inspeccion/recarga
func (s *MaintenanceService) Delete(id uint) (*models.MaintenanceEvent, error) {
	var event models.MaintenanceEvent
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&event, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&event).Error; err != nil {
			return err
		}
		if !event.EventType.CountsAsMaintenance() {
			return nil
		}

		var extinguisher models.Extinguisher
		if err := tx.Select("id", "ultimo_mantenimiento").First(&extinguisher, event.ExtinguisherID).Error; err != nil {
			return err
		}
		if extinguisher.LastMaintenance == nil || !extinguisher.LastMaintenance.Equal(event.Date) {
			return nil
		}

		var latest models.MaintenanceEvent
		err := tx.Where("extintor_id = ? AND tipo_evento IN ?", event.ExtinguisherID,
			[]models.EventType{models.EventInspection, models.EventRecharge}).
			Order("fecha DESC").First(&latest).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Model(&extinguisher).Update("ultimo_mantenimiento", nil).Error
		case err != nil:
			return err
		}
		return tx.Model(&extinguisher).Update("ultimo_mantenimiento", latest.Date).Error
	})
	if err != nil {
		return nil, translateDBError(err, "Mantenimiento", "")
	}

	if event.EvidencePath != nil {
		s.files.Remove(*event.EvidencePath)
	}

	s.invalidate()
	return &event, nil
}

func (s *MaintenanceService) invalidate() {
	if s.cache != nil {
		s.cache.InvalidatePrefix(context.Background(), DashboardCachePrefix)
	}
}
