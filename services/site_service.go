package services

import (
	"context"
	"fmt"

	"backend_extintores/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SiteInput поля объекта; nil означает "не менять"
type SiteInput struct {
	Name    *string
	Address *string
}

// SiteWithStats объект с количеством зон
type SiteWithStats struct {
	models.Site
	LocationCount int64 `json:"total_ubicaciones"`
}

// SiteService CRUD объектов (sedes)
type SiteService struct {
	db     *gorm.DB
	cache  *CacheService
	logger *logrus.Logger
}

// NewSiteService создает сервис объектов
func NewSiteService(db *gorm.DB, cache *CacheService, logger *logrus.Logger) *SiteService {
	return &SiteService{db: db, cache: cache, logger: logger}
}

const siteDuplicateMsg = "Ya existe una sede con ese nombre"

// List возвращает страницу объектов с количеством зон
func (s *SiteService) List(search string, page, limit int) ([]SiteWithStats, models.Pagination, error) {
	query := s.db.Model(&models.Site{})
	if search != "" {
		term := likePattern(search)
		query = query.Where("LOWER(nombre) LIKE ? ESCAPE '\\' OR LOWER(direccion) LIKE ? ESCAPE '\\'", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}

	page, limit = models.NormalizePage(page, limit)

	var sites []models.Site
	if err := query.Order("nombre ASC").Order("id ASC").
		Offset(models.Offset(page, limit)).Limit(limit).
		Find(&sites).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}

	counts, err := s.locationCounts(sites)
	if err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}

	result := make([]SiteWithStats, 0, len(sites))
	for _, site := range sites {
		result = append(result, SiteWithStats{Site: site, LocationCount: counts[site.ID]})
	}

	return result, models.NewPagination(page, limit, total), nil
}

func (s *SiteService) locationCounts(sites []models.Site) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(sites))
	if len(sites) == 0 {
		return counts, nil
	}

	ids := make([]uint, 0, len(sites))
	for _, site := range sites {
		ids = append(ids, site.ID)
	}

	var rows []struct {
		SedeID uint
		Total  int64
	}
	if err := s.db.Model(&models.Location{}).
		Select("sede_id, COUNT(*) AS total").
		Where("sede_id IN ?", ids).
		Group("sede_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.SedeID] = r.Total
	}
	return counts, nil
}

// GetByID возвращает объект вместе с его зонами
func (s *SiteService) GetByID(id uint) (*models.Site, error) {
	var site models.Site
	if err := s.db.Preload("Locations", func(db *gorm.DB) *gorm.DB {
		return db.Order("nombre_area ASC")
	}).First(&site, id).Error; err != nil {
		return nil, translateDBError(err, "Sede", siteDuplicateMsg)
	}
	return &site, nil
}

// Create создает объект
func (s *SiteService) Create(in SiteInput) (*models.Site, error) {
	errs := fieldErrors{}
	site := &models.Site{}
	if in.Name == nil {
		errs.add("nombre", "Campo obligatorio")
	} else {
		site.Name = errs.requireText("nombre", *in.Name, 100)
	}
	if in.Address != nil {
		site.Address = errs.optionalText("direccion", *in.Address, 255)
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if err := s.db.Create(site).Error; err != nil {
		return nil, translateDBError(err, "Sede", siteDuplicateMsg)
	}
	return site, nil
}

// Update меняет только переданные поля
func (s *SiteService) Update(id uint, in SiteInput) (*models.Site, error) {
	errs := fieldErrors{}
	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["nombre"] = errs.requireText("nombre", *in.Name, 100)
	}
	if in.Address != nil {
		updates["direccion"] = errs.optionalText("direccion", *in.Address, 255)
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	var site models.Site
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&site, id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&site).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&site, id).Error
	})
	if err != nil {
		return nil, translateDBError(err, "Sede", siteDuplicateMsg)
	}

	s.invalidate()
	return &site, nil
}

// Delete удаляет объект, если в нем нет зон
func (s *SiteService) Delete(id uint) (*models.Site, error) {
	var site models.Site
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&site, id).Error; err != nil {
			return err
		}

		var locations int64
		if err := tx.Model(&models.Location{}).Where("sede_id = ?", id).Count(&locations).Error; err != nil {
			return err
		}
		if locations > 0 {
			return NewConflictError(fmt.Sprintf("No se puede eliminar la sede: tiene %d ubicaciones asociadas", locations), nil)
		}

		return tx.Delete(&site).Error
	})
	if err != nil {
		return nil, translateDBError(err, "Sede", siteDuplicateMsg)
	}
	return &site, nil
}

func (s *SiteService) invalidate() {
	if s.cache != nil {
		s.cache.InvalidatePrefix(context.Background(), DashboardCachePrefix)
	}
}
