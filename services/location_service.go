package services

import (
	"context"
	"errors"
	"fmt"

	"backend_extintores/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LocationInput поля зоны; nil означает "не менять"
type LocationInput struct {
	AreaName    *string
	Description *string
	SiteID      *uint
}

// LocationFilters фильтры списка зон
type LocationFilters struct {
	SiteID uint
	Search string
	Page   int
	Limit  int
}

// LocationService CRUD зон (ubicaciones)
type LocationService struct {
	db     *gorm.DB
	cache  *CacheService
	logger *logrus.Logger
}

// NewLocationService создает сервис зон
func NewLocationService(db *gorm.DB, cache *CacheService, logger *logrus.Logger) *LocationService {
	return &LocationService{db: db, cache: cache, logger: logger}
}

const locationDuplicateMsg = "Ya existe una ubicación con ese nombre en la sede"

// List возвращает страницу зон с объектом
func (s *LocationService) List(filters LocationFilters) ([]models.Location, models.Pagination, error) {
	query := s.db.Model(&models.Location{})
	if filters.SiteID != 0 {
		query = query.Where("sede_id = ?", filters.SiteID)
	}
	if filters.Search != "" {
		term := likePattern(filters.Search)
		query = query.Where("LOWER(nombre_area) LIKE ? ESCAPE '\\' OR LOWER(descripcion) LIKE ? ESCAPE '\\'", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}

	page, limit := models.NormalizePage(filters.Page, filters.Limit)

	var locations []models.Location
	if err := query.Preload("Site").
		Order("nombre_area ASC").Order("id ASC").
		Offset(models.Offset(page, limit)).Limit(limit).
		Find(&locations).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}

	return locations, models.NewPagination(page, limit, total), nil
}

// GetByID возвращает зону
func (s *LocationService) GetByID(id uint) (*models.Location, error) {
	var location models.Location
	if err := s.db.Preload("Site").First(&location, id).Error; err != nil {
		return nil, translateDBError(err, "Ubicación", locationDuplicateMsg)
	}
	return &location, nil
}

// Create создает зону в существующем объекте
func (s *LocationService) Create(in LocationInput) (*models.Location, error) {
	errs := fieldErrors{}
	location := &models.Location{}
	if in.AreaName == nil {
		errs.add("nombre_area", "Campo obligatorio")
	} else {
		location.AreaName = errs.requireText("nombre_area", *in.AreaName, 100)
	}
	if in.Description != nil {
		location.Description = errs.optionalText("descripcion", *in.Description, 1000)
	}
	if in.SiteID == nil || *in.SiteID == 0 {
		errs.add("sede_id", "Campo obligatorio")
	} else {
		location.SiteID = *in.SiteID
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Site{}, location.SiteID, "sede_id", "La sede no existe"); err != nil {
			return err
		}
		return tx.Create(location).Error
	})
	if err != nil {
		return nil, translateDBError(err, "Ubicación", locationDuplicateMsg)
	}

	s.invalidate()
	return s.GetByID(location.ID)
}

// Update меняет только переданные поля
func (s *LocationService) Update(id uint, in LocationInput) (*models.Location, error) {
	errs := fieldErrors{}
	updates := map[string]interface{}{}
	if in.AreaName != nil {
		updates["nombre_area"] = errs.requireText("nombre_area", *in.AreaName, 100)
	}
	if in.Description != nil {
		updates["descripcion"] = errs.optionalText("descripcion", *in.Description, 1000)
	}
	if in.SiteID != nil {
		if *in.SiteID == 0 {
			errs.add("sede_id", "Identificador inválido")
		}
		updates["sede_id"] = *in.SiteID
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var location models.Location
		if err := tx.First(&location, id).Error; err != nil {
			return err
		}
		if in.SiteID != nil {
			if err := requireExists(tx, &models.Site{}, *in.SiteID, "sede_id", "La sede no existe"); err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&location).Updates(updates).Error
	})
	if err != nil {
		return nil, translateDBError(err, "Ubicación", locationDuplicateMsg)
	}

	s.invalidate()
	return s.GetByID(id)
}

// Delete удаляет зону, если в ней нет огнетушителей
func (s *LocationService) Delete(id uint) (*models.Location, error) {
	var location models.Location
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&location, id).Error; err != nil {
			return err
		}

		var extinguishers int64
		if err := tx.Model(&models.Extinguisher{}).Where("ubicacion_id = ?", id).Count(&extinguishers).Error; err != nil {
			return err
		}
		if extinguishers > 0 {
			return NewConflictError(fmt.Sprintf("No se puede eliminar la ubicación: tiene %d extintores asociados", extinguishers), nil)
		}

		return tx.Delete(&location).Error
	})
	if err != nil {
		return nil, translateDBError(err, "Ubicación", locationDuplicateMsg)
	}

	s.invalidate()
	return &location, nil
}

func (s *LocationService) invalidate() {
	if s.cache != nil {
		s.cache.InvalidatePrefix(context.Background(), DashboardCachePrefix)
	}
}

// requireExists проверяет существование строки по первичному ключу, иначе ошибка валидации поля
func requireExists(tx *gorm.DB, model interface{}, id interface{}, field, message string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return FieldError(field, message)
	}
	return nil
}

// isNotFound проверяет отсутствие записи
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || IsKind(err, KindNotFound)
}
