package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backend_extintores/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ExtinguisherInput поля огнетушителя. Указатели: nil означает "не менять";
// Optional дополнительно позволяет явно обнулить поле
type ExtinguisherInput struct {
	InternalCode    Optional[string]
	Description     *string
	TypeID          *string
	LocationID      *uint
	ResponsibleID   Optional[uint]
	ExpirationDate  *time.Time
	LastMaintenance Optional[time.Time]
	Status          *string
	CapacityKg      Optional[decimal.Decimal]

	Image       *Upload
	RemoveImage bool
}

// ExtinguisherFilters фильтры, пагинация и сортировка списка огнетушителей
type ExtinguisherFilters struct {
	TypeID             string
	LocationID         uint
	SiteID             uint
	Status             string
	ExpirationStatus   string
	MaintenancePending *bool
	Search             string
	Page               int
	Limit              int
	SortBy             string
	SortOrder          string
}

var extinguisherSortColumns = map[string]string{
	"fecha_vencimiento":    "extintores.fecha_vencimiento",
	"ultimo_mantenimiento": "extintores.ultimo_mantenimiento",
	"created_at":           "extintores.created_at",
}

// Validate проверяет значения фильтров до обращения к БД
func (f ExtinguisherFilters) Validate() error {
	errs := fieldErrors{}
	if f.Status != "" && !models.ValidStatusFilter(f.Status) {
		errs.add("estado", "Estado inválido")
	}
	if f.ExpirationStatus != "" && !models.ValidBucket(f.ExpirationStatus) {
		errs.add("estado_vencimiento", "Estado de vencimiento inválido")
	}
	if f.SortBy != "" {
		if _, ok := extinguisherSortColumns[f.SortBy]; !ok {
			errs.add("sort_by", "Campo de ordenamiento inválido")
		}
	}
	if f.SortOrder != "" && f.SortOrder != "asc" && f.SortOrder != "desc" {
		errs.add("sort_order", "Debe ser asc o desc")
	}
	return errs.err()
}

// ExtinguisherService огнетушители: CRUD, фильтры и файлы изображений
type ExtinguisherService struct {
	db     *gorm.DB
	cache  *CacheService
	files  *FileStore
	qr     *FileStore
	logger *logrus.Logger

	Now func() time.Time
}

// NewExtinguisherService создает сервис огнетушителей; qr может быть nil
func NewExtinguisherService(db *gorm.DB, cache *CacheService, files, qr *FileStore, logger *logrus.Logger) *ExtinguisherService {
	return &ExtinguisherService{db: db, cache: cache, files: files, qr: qr, logger: logger, Now: time.Now}
}

const extinguisherDuplicateMsg = "Ya existe un extintor con ese código interno"

// Today текущая календарная дата
func (s *ExtinguisherService) Today() time.Time {
	return models.DateOnly(s.Now())
}

// List возвращает страницу огнетушителей с вычисляемыми полями.
// Фильтры по вычисляемым полям переводятся в условия по датам, поэтому total точен.
func (s *ExtinguisherService) List(filters ExtinguisherFilters) ([]models.ExtinguisherView, models.Pagination, error) {
	if err := filters.Validate(); err != nil {
		return nil, models.Pagination{}, err
	}
	today := s.Today()

	var total int64
	if err := s.filteredQuery(filters, today).Count(&total).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}

	page, limit := models.NormalizePage(filters.Page, filters.Limit)

	var list []models.Extinguisher
	query := s.filteredQuery(filters, today).
		Select("extintores.*").
		Preload("Type").Preload("Location.Site").Preload("Responsible")
	if err := applyExtinguisherOrder(query, filters).
		Offset(models.Offset(page, limit)).Limit(limit).
		Find(&list).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}

	return models.NewExtinguisherViews(list, today), models.NewPagination(page, limit, total), nil
}

// ListAll возвращает все огнетушители по фильтрам без пагинации (для отчетов)
func (s *ExtinguisherService) ListAll(filters ExtinguisherFilters) ([]models.ExtinguisherView, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	today := s.Today()

	var list []models.Extinguisher
	query := s.filteredQuery(filters, today).
		Select("extintores.*").
		Preload("Type").Preload("Location.Site").Preload("Responsible")
	if err := applyExtinguisherOrder(query, filters).Find(&list).Error; err != nil {
		return nil, NewInternalError(err)
	}
	return models.NewExtinguisherViews(list, today), nil
}

func (s *ExtinguisherService) filteredQuery(filters ExtinguisherFilters, today time.Time) *gorm.DB {
	query := s.db.Model(&models.Extinguisher{}).
		Joins("JOIN ubicaciones ON ubicaciones.id = extintores.ubicacion_id").
		Joins("JOIN tipos_extintores ON tipos_extintores.id = extintores.tipo_id")

	if filters.TypeID != "" {
		query = query.Where("extintores.tipo_id = ?", strings.ToUpper(filters.TypeID))
	}
	if filters.LocationID != 0 {
		query = query.Where("extintores.ubicacion_id = ?", filters.LocationID)
	}
	if filters.SiteID != 0 {
		query = query.Where("ubicaciones.sede_id = ?", filters.SiteID)
	}

	// vencido не хранится: это activo с истекшим сроком, и activo его исключает
	_, expiredUntil := models.BucketRange(models.BucketExpired, today)
	switch models.ExtinguisherStatus(filters.Status) {
	case "":
	case models.StatusExpired:
		query = query.Where("extintores.estado = ? AND extintores.fecha_vencimiento <= ?", models.StatusActive, *expiredUntil)
	case models.StatusActive:
		query = query.Where("extintores.estado = ? AND extintores.fecha_vencimiento > ?", models.StatusActive, *expiredUntil)
	default:
		query = query.Where("extintores.estado = ?", filters.Status)
	}

	if filters.ExpirationStatus != "" {
		query = whereBucket(query, models.ExpirationBucket(filters.ExpirationStatus), today)
	}

	if filters.MaintenancePending != nil {
		query = whereMaintenanceDue(query, *filters.MaintenancePending, today)
	}

	if search := strings.TrimSpace(filters.Search); search != "" {
		term := likePattern(search)
		query = query.Where(
			"LOWER(COALESCE(extintores.codigo_interno, '')) LIKE ? ESCAPE '\\' OR LOWER(extintores.descripcion) LIKE ? ESCAPE '\\' "+
				"OR LOWER(tipos_extintores.nombre) LIKE ? ESCAPE '\\' OR LOWER(ubicaciones.nombre_area) LIKE ? ESCAPE '\\'",
			term, term, term, term,
		)
	}

	return query
}

// whereBucket условие по дате истечения, эквивалентное models.ExpirationBucketFor
func whereBucket(query *gorm.DB, bucket models.ExpirationBucket, today time.Time) *gorm.DB {
	gt, lte := models.BucketRange(bucket, today)
	if gt != nil {
		query = query.Where("extintores.fecha_vencimiento > ?", *gt)
	}
	if lte != nil {
		query = query.Where("extintores.fecha_vencimiento <= ?", *lte)
	}
	return query
}

// whereMaintenanceDue условие, эквивалентное models.MaintenanceDue
func whereMaintenanceDue(query *gorm.DB, due bool, today time.Time) *gorm.DB {
	cutoff := models.MaintenanceCutoff(today)
	if due {
		return query.Where("(extintores.ultimo_mantenimiento IS NULL OR extintores.ultimo_mantenimiento < ?)", cutoff)
	}
	return query.Where("extintores.ultimo_mantenimiento >= ?", cutoff)
}

func applyExtinguisherOrder(query *gorm.DB, filters ExtinguisherFilters) *gorm.DB {
	column, ok := extinguisherSortColumns[filters.SortBy]
	if !ok {
		column = extinguisherSortColumns["created_at"]
	}
	order := "DESC"
	if filters.SortOrder == "asc" || (filters.SortOrder == "" && filters.SortBy != "" && filters.SortBy != "created_at") {
		order = "ASC"
	}
	return query.Order(column + " " + order).Order("extintores.id ASC")
}

// GetByID возвращает огнетушитель с вычисляемыми полями
func (s *ExtinguisherService) GetByID(id uint) (*models.ExtinguisherView, error) {
	extinguisher, err := s.load(s.db, id)
	if err != nil {
		return nil, err
	}
	view := models.NewExtinguisherView(*extinguisher, s.Today())
	return &view, nil
}

// FindByCode ищет огнетушитель по внутреннему коду
func (s *ExtinguisherService) FindByCode(code string) (*models.ExtinguisherView, error) {
	var extinguisher models.Extinguisher
	err := s.db.Preload("Type").Preload("Location.Site").Preload("Responsible").
		Where("codigo_interno = ?", strings.TrimSpace(code)).
		First(&extinguisher).Error
	if err != nil {
		return nil, translateDBError(err, "Extintor", extinguisherDuplicateMsg)
	}
	view := models.NewExtinguisherView(extinguisher, s.Today())
	return &view, nil
}

func (s *ExtinguisherService) load(db *gorm.DB, id uint) (*models.Extinguisher, error) {
	var extinguisher models.Extinguisher
	if err := db.Preload("Type").Preload("Location.Site").Preload("Responsible").First(&extinguisher, id).Error; err != nil {
		return nil, translateDBError(err, "Extintor", extinguisherDuplicateMsg)
	}
	return &extinguisher, nil
}

// Create создает огнетушитель; изображение пишется до записи в БД и удаляется, если запись не удалась
func (s *ExtinguisherService) Create(in ExtinguisherInput) (*models.ExtinguisherView, error) {
	errs := fieldErrors{}
	extinguisher := &models.Extinguisher{Status: models.StatusActive}

	if in.TypeID == nil || strings.TrimSpace(*in.TypeID) == "" {
		errs.add("tipo_id", "Campo obligatorio")
	} else {
		extinguisher.TypeID = strings.ToUpper(strings.TrimSpace(*in.TypeID))
	}
	if in.LocationID == nil || *in.LocationID == 0 {
		errs.add("ubicacion_id", "Campo obligatorio")
	} else {
		extinguisher.LocationID = *in.LocationID
	}
	if in.ExpirationDate == nil || in.ExpirationDate.IsZero() {
		errs.add("fecha_vencimiento", "Campo obligatorio")
	} else {
		extinguisher.ExpirationDate = models.DateOnly(*in.ExpirationDate)
	}
	if in.InternalCode.Set {
		extinguisher.InternalCode = normalizeCode(errs, in.InternalCode.Value)
	}
	if in.Description != nil {
		extinguisher.Description = errs.optionalText("descripcion", *in.Description, 1000)
	}
	if in.ResponsibleID.Set && in.ResponsibleID.Value != nil {
		if *in.ResponsibleID.Value == 0 {
			errs.add("responsable_id", "Identificador inválido")
		}
		extinguisher.ResponsibleID = in.ResponsibleID.Value
	}
	if in.LastMaintenance.Set && in.LastMaintenance.Value != nil {
		last := models.DateOnly(*in.LastMaintenance.Value)
		extinguisher.LastMaintenance = &last
	}
	if in.Status != nil {
		extinguisher.Status = validateStoredStatus(errs, *in.Status)
	}
	if in.CapacityKg.Set {
		extinguisher.CapacityKg = validateCapacity(errs, in.CapacityKg.Value)
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	stored, err := s.saveImage(in.Image)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		extinguisher.ImagePath = &stored.URLPath
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.checkReferences(tx, extinguisher.TypeID, extinguisher.LocationID, extinguisher.ResponsibleID); err != nil {
			return err
		}
		return tx.Create(extinguisher).Error
	})
	if err != nil {
		s.files.RemoveStored(stored)
		return nil, translateDBError(err, "Extintor", extinguisherDuplicateMsg)
	}

	s.invalidate()
	return s.GetByID(extinguisher.ID)
}

// Update меняет только переданные поля; старое изображение удаляется после фиксации транзакции
func (s *ExtinguisherService) Update(id uint, in ExtinguisherInput) (*models.ExtinguisherView, error) {
	errs := fieldErrors{}
	updates := map[string]interface{}{}

	if in.TypeID != nil {
		typeID := strings.ToUpper(strings.TrimSpace(*in.TypeID))
		if typeID == "" {
			errs.add("tipo_id", "Campo obligatorio")
		}
		updates["tipo_id"] = typeID
	}
	if in.LocationID != nil {
		if *in.LocationID == 0 {
			errs.add("ubicacion_id", "Identificador inválido")
		}
		updates["ubicacion_id"] = *in.LocationID
	}
	if in.ExpirationDate != nil {
		if in.ExpirationDate.IsZero() {
			errs.add("fecha_vencimiento", "Campo obligatorio")
		}
		updates["fecha_vencimiento"] = models.DateOnly(*in.ExpirationDate)
	}
	if in.InternalCode.Set {
		updates["codigo_interno"] = normalizeCode(errs, in.InternalCode.Value)
	}
	if in.Description != nil {
		updates["descripcion"] = errs.optionalText("descripcion", *in.Description, 1000)
	}
	if in.ResponsibleID.Set {
		if in.ResponsibleID.Value != nil && *in.ResponsibleID.Value == 0 {
			errs.add("responsable_id", "Identificador inválido")
		}
		updates["responsable_id"] = in.ResponsibleID.Value
	}
	if in.LastMaintenance.Set {
		if in.LastMaintenance.Value == nil {
			updates["ultimo_mantenimiento"] = nil
		} else {
			updates["ultimo_mantenimiento"] = models.DateOnly(*in.LastMaintenance.Value)
		}
	}
	if in.Status != nil {
		updates["estado"] = validateStoredStatus(errs, *in.Status)
	}
	if in.CapacityKg.Set {
		updates["capacidad_kg"] = validateCapacity(errs, in.CapacityKg.Value)
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	stored, err := s.saveImage(in.Image)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		updates["imagen_path"] = stored.URLPath
	} else if in.RemoveImage {
		updates["imagen_path"] = nil
	}

	var oldImage string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var extinguisher models.Extinguisher
		if err := tx.First(&extinguisher, id).Error; err != nil {
			return err
		}
		if extinguisher.ImagePath != nil {
			oldImage = *extinguisher.ImagePath
		}

		var typeID string
		if v, ok := updates["tipo_id"].(string); ok {
			typeID = v
		}
		var locationID uint
		if v, ok := updates["ubicacion_id"].(uint); ok {
			locationID = v
		}
		var responsibleID *uint
		if in.ResponsibleID.Set {
			responsibleID = in.ResponsibleID.Value
		}
		if err := s.checkReferences(tx, typeID, locationID, responsibleID); err != nil {
			return err
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&extinguisher).Updates(updates).Error
	})
	if err != nil {
		s.files.RemoveStored(stored)
		return nil, translateDBError(err, "Extintor", extinguisherDuplicateMsg)
	}

	if oldImage != "" && (stored != nil || in.RemoveImage) {
		s.files.Remove(oldImage)
	}

	s.invalidate()
	return s.GetByID(id)
}

// Delete удаляет огнетушитель вместе с историей обслуживания; файлы удаляются после фиксации
func (s *ExtinguisherService) Delete(id uint) (*models.Extinguisher, error) {
	var extinguisher models.Extinguisher
	var evidence []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&extinguisher, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.MaintenanceEvent{}).
			Where("extintor_id = ? AND evidencia_path IS NOT NULL", id).
			Pluck("evidencia_path", &evidence).Error; err != nil {
			return err
		}
		// История удаляется явно: SQLite без PRAGMA foreign_keys не каскадирует
		if err := tx.Where("extintor_id = ?", id).Delete(&models.MaintenanceEvent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&extinguisher).Error
	})
	if err != nil {
		return nil, translateDBError(err, "Extintor", extinguisherDuplicateMsg)
	}

	if extinguisher.ImagePath != nil {
		s.files.Remove(*extinguisher.ImagePath)
	}
	for _, path := range evidence {
		s.files.Remove(path)
	}
	if s.qr != nil {
		s.qr.Remove(s.qr.URLFor(QRFileName(id)))
	}

	s.invalidate()
	return &extinguisher, nil
}

// checkReferences проверяет существование связанных записей; пустые значения пропускаются
func (s *ExtinguisherService) checkReferences(tx *gorm.DB, typeID string, locationID uint, responsibleID *uint) error {
	errs := fieldErrors{}
	if typeID != "" {
		if err := requireExists(tx, &models.ExtinguisherType{}, typeID, "tipo_id", "El tipo de extintor no existe"); err != nil {
			if !IsKind(err, KindValidation) {
				return err
			}
			errs.add("tipo_id", "El tipo de extintor no existe")
		}
	}
	if locationID != 0 {
		if err := requireExists(tx, &models.Location{}, locationID, "ubicacion_id", "La ubicación no existe"); err != nil {
			if !IsKind(err, KindValidation) {
				return err
			}
			errs.add("ubicacion_id", "La ubicación no existe")
		}
	}
	if responsibleID != nil {
		if err := requireExists(tx, &models.User{}, *responsibleID, "responsable_id", "El usuario responsable no existe"); err != nil {
			if !IsKind(err, KindValidation) {
				return err
			}
			errs.add("responsable_id", "El usuario responsable no existe")
		}
	}
	return errs.err()
}

func (s *ExtinguisherService) saveImage(up *Upload) (*StoredFile, error) {
	if up == nil {
		return nil, nil
	}
	return s.files.SaveImage("imagen", up)
}

func (s *ExtinguisherService) invalidate() {
	if s.cache != nil {
		s.cache.InvalidatePrefix(context.Background(), DashboardCachePrefix)
	}
}

// normalizeCode обрезает пробелы; пустой код хранится как NULL
func normalizeCode(errs fieldErrors, code *string) *string {
	if code == nil {
		return nil
	}
	value := errs.optionalText("codigo_interno", *code, 50)
	if value == "" {
		return nil
	}
	return &value
}

func validateStoredStatus(errs fieldErrors, status string) models.ExtinguisherStatus {
	switch {
	case models.ExtinguisherStatus(status) == models.StatusExpired:
		errs.add("estado", "El estado vencido se calcula a partir de la fecha de vencimiento")
	case !models.ValidStoredStatus(status):
		errs.add("estado", "Estado inválido")
	}
	return models.ExtinguisherStatus(status)
}

var maxCapacity = decimal.NewFromInt(10000)

func validateCapacity(errs fieldErrors, value *decimal.Decimal) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	if !value.IsPositive() || value.GreaterThanOrEqual(maxCapacity) {
		errs.add("capacidad_kg", fmt.Sprintf("Debe ser mayor que 0 y menor que %s", maxCapacity.String()))
	}
	return decimal.NullDecimal{Decimal: value.Round(2), Valid: true}
}
