package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"backend_extintores/models"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExtinguisherTypeInput поля записи каталога; nil означает "не менять"
type ExtinguisherTypeInput struct {
	ID             string
	Name           *string
	Description    *string
	RecommendedUse *string
	ColorHex       *string
	FireClasses    []string
	IconPath       *string
}

// ExtinguisherTypeService CRUD каталога типов огнетушителей
type ExtinguisherTypeService struct {
	db     *gorm.DB
	cache  *CacheService
	logger *logrus.Logger
}

// NewExtinguisherTypeService создает сервис каталога
func NewExtinguisherTypeService(db *gorm.DB, cache *CacheService, logger *logrus.Logger) *ExtinguisherTypeService {
	return &ExtinguisherTypeService{db: db, cache: cache, logger: logger}
}

const typeDuplicateMsg = "Ya existe un tipo de extintor con ese código o nombre"

// List возвращает весь каталог, отсортированный по коду
func (s *ExtinguisherTypeService) List(search string) ([]models.ExtinguisherType, error) {
	query := s.db.Model(&models.ExtinguisherType{})
	if search != "" {
		term := likePattern(search)
		query = query.Where("LOWER(id) LIKE ? ESCAPE '\\' OR LOWER(nombre) LIKE ? ESCAPE '\\' OR LOWER(uso_recomendado) LIKE ? ESCAPE '\\'", term, term, term)
	}

	var types []models.ExtinguisherType
	if err := query.Order("id ASC").Find(&types).Error; err != nil {
		return nil, NewInternalError(err)
	}
	return types, nil
}

// GetByID возвращает тип по коду
func (s *ExtinguisherTypeService) GetByID(id string) (*models.ExtinguisherType, error) {
	var t models.ExtinguisherType
	if err := s.db.First(&t, "id = ?", strings.ToUpper(strings.TrimSpace(id))).Error; err != nil {
		return nil, translateDBError(err, "Tipo de extintor", typeDuplicateMsg)
	}
	return &t, nil
}

// Create создает запись каталога
func (s *ExtinguisherTypeService) Create(in ExtinguisherTypeInput) (*models.ExtinguisherType, error) {
	errs := fieldErrors{}
	t := &models.ExtinguisherType{ID: strings.ToUpper(strings.TrimSpace(in.ID))}
	if !ValidTypeCode(t.ID) {
		errs.add("id", "Código inválido: use 1-20 caracteres A-Z, 0-9, _ o -")
	}
	if in.Name == nil {
		errs.add("nombre", "Campo obligatorio")
	} else {
		t.Name = errs.requireText("nombre", *in.Name, 100)
	}
	if in.Description != nil {
		t.Description = errs.optionalText("descripcion", *in.Description, 2000)
	}
	if in.RecommendedUse != nil {
		t.RecommendedUse = errs.optionalText("uso_recomendado", *in.RecommendedUse, 2000)
	}
	if in.ColorHex != nil && *in.ColorHex != "" {
		if !ValidHexColor(*in.ColorHex) {
			errs.add("color_hex", "Color inválido: use #RRGGBB")
		}
		t.ColorHex = strings.ToUpper(*in.ColorHex)
	}
	if in.IconPath != nil {
		t.IconPath = errs.optionalText("icono_path", *in.IconPath, 255)
	}
	classes, ok := normalizeFireClasses(in.FireClasses)
	if !ok {
		errs.add("clases_fuego", "Clases de fuego válidas: A, B, C, D, K")
	}
	t.FireClasses = classes
	if err := errs.err(); err != nil {
		return nil, err
	}

	if err := s.db.Create(t).Error; err != nil {
		return nil, translateDBError(err, "Tipo de extintor", typeDuplicateMsg)
	}

	s.invalidate()
	return t, nil
}

// Update меняет только переданные поля; код (первичный ключ) не меняется
func (s *ExtinguisherTypeService) Update(id string, in ExtinguisherTypeInput) (*models.ExtinguisherType, error) {
	errs := fieldErrors{}
	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["nombre"] = errs.requireText("nombre", *in.Name, 100)
	}
	if in.Description != nil {
		updates["descripcion"] = errs.optionalText("descripcion", *in.Description, 2000)
	}
	if in.RecommendedUse != nil {
		updates["uso_recomendado"] = errs.optionalText("uso_recomendado", *in.RecommendedUse, 2000)
	}
	if in.ColorHex != nil {
		if *in.ColorHex != "" && !ValidHexColor(*in.ColorHex) {
			errs.add("color_hex", "Color inválido: use #RRGGBB")
		}
		updates["color_hex"] = strings.ToUpper(*in.ColorHex)
	}
	if in.IconPath != nil {
		updates["icono_path"] = errs.optionalText("icono_path", *in.IconPath, 255)
	}
	if in.FireClasses != nil {
		classes, ok := normalizeFireClasses(in.FireClasses)
		if !ok {
			errs.add("clases_fuego", "Clases de fuego válidas: A, B, C, D, K")
		}
		updates["clases_fuego"] = classes
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(id))
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var t models.ExtinguisherType
		if err := tx.First(&t, "id = ?", code).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&t).Updates(updates).Error
	})
	if err != nil {
		return nil, translateDBError(err, "Tipo de extintor", typeDuplicateMsg)
	}

	s.invalidate()
	return s.GetByID(code)
}

// Delete удаляет тип, если на него не ссылается ни один огнетушитель
func (s *ExtinguisherTypeService) Delete(id string) (*models.ExtinguisherType, error) {
	code := strings.ToUpper(strings.TrimSpace(id))

	var t models.ExtinguisherType
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&t, "id = ?", code).Error; err != nil {
			return err
		}

		var extinguishers int64
		if err := tx.Model(&models.Extinguisher{}).Where("tipo_id = ?", code).Count(&extinguishers).Error; err != nil {
			return err
		}
		if extinguishers > 0 {
			return NewConflictError(fmt.Sprintf("No se puede eliminar el tipo: tiene %d extintores asociados", extinguishers), nil)
		}

		return tx.Delete(&t).Error
	})
	if err != nil {
		return nil, translateDBError(err, "Tipo de extintor", typeDuplicateMsg)
	}

	s.invalidate()
	return &t, nil
}

func (s *ExtinguisherTypeService) invalidate() {
	if s.cache != nil {
		s.cache.InvalidatePrefix(context.Background(), DashboardCachePrefix)
	}
}

// normalizeFireClasses приводит классы к верхнему регистру, убирает дубли и сортирует
func normalizeFireClasses(classes []string) (datatypes.JSONSlice[string], bool) {
	seen := make(map[string]bool, len(classes))
	result := make([]string, 0, len(classes))
	ok := true
	for _, c := range classes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if !models.ValidFireClass(c) {
			ok = false
			continue
		}
		if !seen[c] {
			seen[c] = true
			result = append(result, c)
		}
	}
	sort.Strings(result)
	return datatypes.JSONSlice[string](result), ok
}
