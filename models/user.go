package models

import (
	"time"
)

// Role роль пользователя
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "tecnico"
	RoleViewer     Role = "consulta"
)

// ValidRole проверяет роль
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleTechnician, RoleViewer:
		return true
	}
	return false
}

// User представляет модель пользователя в системе
type User struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Основные поля
	Name         string `json:"nombre" gorm:"column:nombre;type:varchar(100);not null"`
	Email        string `json:"email" gorm:"uniqueIndex;type:varchar(150);not null"`
	PasswordHash string `json:"-" gorm:"column:password_hash;not null"` // Пароль не возвращается в JSON

	Role      Role       `json:"rol" gorm:"column:rol;type:varchar(20);not null;index"`
	Active    bool       `json:"activo" gorm:"column:activo;not null;index"` // без default: false должен записываться
	LastLogin *time.Time `json:"ultimo_acceso" gorm:"column:ultimo_acceso"`
}

// TableName задает имя таблицы для модели User
func (User) TableName() string {
	return "usuarios"
}

// IsAdmin проверяет, является ли пользователь администратором
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
