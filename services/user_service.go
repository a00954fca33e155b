package services

import (
	"errors"

	"backend_extintores/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateUserInput поля для создания пользователя
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Active   *bool
}

// UpdateUserInput частичное обновление: меняются только заданные поля
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
	Active   *bool
}

// UserFilters фильтры списка пользователей
type UserFilters struct {
	Role   string
	Active *bool
	Search string
	Page   int
	Limit  int
}

// UserService управление учетными записями
type UserService struct {
	db     *gorm.DB
	auth   *AuthService
	logger *logrus.Logger
}

// NewUserService создает сервис пользователей
func NewUserService(db *gorm.DB, auth *AuthService, logger *logrus.Logger) *UserService {
	return &UserService{db: db, auth: auth, logger: logger}
}

const userDuplicateMsg = "Ya existe un usuario con ese email"

var errLastAdmin = NewConflictError("Debe existir al menos un administrador activo", nil)

// List возвращает страницу пользователей
func (s *UserService) List(filters UserFilters) ([]models.User, models.Pagination, error) {
	query := s.db.Model(&models.User{})

	if filters.Role != "" {
		query = query.Where("rol = ?", filters.Role)
	}
	if filters.Active != nil {
		query = query.Where("activo = ?", *filters.Active)
	}
	if filters.Search != "" {
		search := likePattern(filters.Search)
		query = query.Where("LOWER(nombre) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\'", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}

	page, limit := models.NormalizePage(filters.Page, filters.Limit)

	var users []models.User
	if err := query.Order("nombre ASC").Order("id ASC").
		Offset(models.Offset(page, limit)).Limit(limit).
		Find(&users).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}

	return users, models.NewPagination(page, limit, total), nil
}

// GetByID возвращает пользователя по ID
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, translateDBError(err, "Usuario", userDuplicateMsg)
	}
	return &user, nil
}

// Create создает пользователя; активен по умолчанию
func (s *UserService) Create(in CreateUserInput) (*models.User, error) {
	errs := fieldErrors{}
	name := errs.requireText("nombre", in.Name, 100)
	email := normalizeEmail(in.Email)
	if email == "" {
		errs.add("email", "Campo obligatorio")
	} else if !ValidEmail(email) {
		errs.add("email", "Formato de email inválido")
	}
	if err := validatePassword(in.Password); err != nil {
		errs.add("password", AsAppError(err).Fields["password"])
	}
	if !models.ValidRole(in.Role) {
		errs.add("rol", "Rol inválido")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, NewInternalError(err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.Role(in.Role),
		Active:       true,
	}
	if in.Active != nil {
		user.Active = *in.Active
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, translateDBError(err, "Usuario", userDuplicateMsg)
	}

	return user, nil
}

// Update меняет разрешенные поля; понижение роли или деактивация последнего админа запрещены
func (s *UserService) Update(id uint, in UpdateUserInput) (*models.User, error) {
	errs := fieldErrors{}
	updates := map[string]interface{}{}

	if in.Name != nil {
		updates["nombre"] = errs.requireText("nombre", *in.Name, 100)
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if !ValidEmail(email) {
			errs.add("email", "Formato de email inválido")
		}
		updates["email"] = email
	}
	if in.Role != nil {
		if !models.ValidRole(*in.Role) {
			errs.add("rol", "Rol inválido")
		}
		updates["rol"] = *in.Role
	}
	if in.Active != nil {
		updates["activo"] = *in.Active
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			errs.add("password", AsAppError(err).Fields["password"])
		}
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if in.Password != nil {
		hash, err := s.auth.HashPassword(*in.Password)
		if err != nil {
			return nil, NewInternalError(err)
		}
		updates["password_hash"] = hash
	}

	var user models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}

		losesAdmin := (in.Role != nil && models.Role(*in.Role) != models.RoleAdmin) ||
			(in.Active != nil && !*in.Active)
		if user.IsAdmin() && user.Active && losesAdmin {
			if err := ensureAnotherActiveAdmin(tx, user.ID); err != nil {
				return err
			}
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, id).Error
	})
	if err != nil {
		return nil, translateDBError(err, "Usuario", userDuplicateMsg)
	}

	return &user, nil
}

// SetActive активирует или деактивирует пользователя (мягкое удаление)
func (s *UserService) SetActive(id uint, active bool) (*models.User, error) {
	return s.Update(id, UpdateUserInput{Active: &active})
}

// Delete удаляет учетную запись, если на нее нет ссылок; иначе следует деактивировать
func (s *UserService) Delete(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}

		if user.IsAdmin() && user.Active {
			if err := ensureAnotherActiveAdmin(tx, user.ID); err != nil {
				return err
			}
		}

		var extinguishers, events int64
		if err := tx.Model(&models.Extinguisher{}).Where("responsable_id = ?", id).Count(&extinguishers).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.MaintenanceEvent{}).Where("tecnico_id = ?", id).Count(&events).Error; err != nil {
			return err
		}
		if extinguishers > 0 || events > 0 {
			return NewConflictError("El usuario tiene extintores o mantenimientos asociados; desactívelo en su lugar", nil)
		}

		return tx.Delete(&user).Error
	})
	if err != nil {
		return nil, translateDBError(err, "Usuario", userDuplicateMsg)
	}

	s.logger.WithField("user_id", id).Info("Usuario eliminado")
	return &user, nil
}

// CountActiveAdmins количество активных администраторов
func (s *UserService) CountActiveAdmins() (int64, error) {
	var count int64
	err := s.db.Model(&models.User{}).Where("rol = ? AND activo = ?", models.RoleAdmin, true).Count(&count).Error
	return count, err
}

// ensureAnotherActiveAdmin блокирует строки активных админов и проверяет, что останется хотя бы один
func ensureAnotherActiveAdmin(tx *gorm.DB, excludeID uint) error {
	var ids []uint
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Model(&models.User{}).
		Where("rol = ? AND activo = ? AND id <> ?", models.RoleAdmin, true, excludeID).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return errLastAdmin
	}
	return nil
}

// IsLastAdminError проверяет, что операция отклонена из-за последнего администратора
func IsLastAdminError(err error) bool {
	return errors.Is(err, errLastAdmin)
}
