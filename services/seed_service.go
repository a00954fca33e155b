package services

import (
	_ "embed"
	"fmt"
	"os"

	"backend_extintores/config"
	"backend_extintores/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed seed/tipos_extintores.yaml
var defaultTypesYAML []byte

// TypeSeed описание типа огнетушителя в YAML-каталоге
type TypeSeed struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"nombre"`
	Description    string   `yaml:"descripcion"`
	RecommendedUse string   `yaml:"uso_recomendado"`
	ColorHex       string   `yaml:"color_hex"`
	FireClasses    []string `yaml:"clases_fuego"`
	IconPath       string   `yaml:"icono_path"`
}

type typeCatalog struct {
	Types []TypeSeed `yaml:"tipos"`
}

// SeedService начальные данные: администратор и каталог типов
type SeedService struct {
	db     *gorm.DB
	users  *UserService
	cfg    config.SeedConfig
	logger *logrus.Logger
}

// NewSeedService создает сервис начальных данных
func NewSeedService(db *gorm.DB, users *UserService, cfg config.SeedConfig, logger *logrus.Logger) *SeedService {
	return &SeedService{db: db, users: users, cfg: cfg, logger: logger}
}

// Run выполняет все шаги заполнения
func (s *SeedService) Run() error {
	if _, err := s.SeedAdmin(); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if _, err := s.SeedTypes(); err != nil {
		return fmt.Errorf("seed tipos: %w", err)
	}
	return nil
}

// SeedAdmin создает администратора, если в системе нет ни одного пользователя
func (s *SeedService) SeedAdmin() (*models.User, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	password := s.cfg.AdminPassword
	generated := password == ""
	if generated {
		password = uuid.New().String()
	}

	admin, err := s.users.Create(CreateUserInput{
		Name:     s.cfg.AdminName,
		Email:    s.cfg.AdminEmail,
		Password: password,
		Role:     string(models.RoleAdmin),
	})
	if err != nil {
		return nil, err
	}

	entry := s.logger.WithField("email", admin.Email)
	if generated {
		// Пароль выводится один раз; его нужно сменить после первого входа
		entry = entry.WithField("password", password)
	}
	entry.Warn("Создан администратор по умолчанию")
	return admin, nil
}

// SeedTypes добавляет типы из каталога; существующие коды не изменяются
func (s *SeedService) SeedTypes() (int, error) {
	catalog, err := s.loadCatalog()
	if err != nil {
		return 0, err
	}

	types := make([]models.ExtinguisherType, 0, len(catalog))
	for _, seed := range catalog {
		classes, ok := normalizeFireClasses(seed.FireClasses)
		if !ok || !ValidTypeCode(seed.ID) || (seed.ColorHex != "" && !ValidHexColor(seed.ColorHex)) {
			return 0, fmt.Errorf("tipo %q inválido en el catálogo", seed.ID)
		}
		types = append(types, models.ExtinguisherType{
			ID:             seed.ID,
			Name:           seed.Name,
			Description:    seed.Description,
			RecommendedUse: seed.RecommendedUse,
			ColorHex:       seed.ColorHex,
			FireClasses:    classes,
			IconPath:       seed.IconPath,
		})
	}
	if len(types) == 0 {
		return 0, nil
	}

	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&types)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		s.logger.WithField("count", result.RowsAffected).Info("Каталог типов огнетушителей заполнен")
	}
	return int(result.RowsAffected), nil
}

func (s *SeedService) loadCatalog() ([]TypeSeed, error) {
	data := defaultTypesYAML
	if s.cfg.TypesFile != "" {
		fileData, err := os.ReadFile(s.cfg.TypesFile)
		if err != nil {
			return nil, fmt.Errorf("не удалось прочитать %s: %w", s.cfg.TypesFile, err)
		}
		data = fileData
	}
	return ParseTypeCatalog(data)
}

// ParseTypeCatalog разбирает YAML-каталог типов
func ParseTypeCatalog(data []byte) ([]TypeSeed, error) {
	var catalog typeCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("catálogo YAML inválido: %w", err)
	}
	return catalog.Types, nil
}
