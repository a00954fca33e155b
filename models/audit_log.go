package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditAction действие, фиксируемое в журнале аудита
type AuditAction string

const (
	ActionCreate AuditAction = "crear"
	ActionEdit   AuditAction = "editar"
	ActionDelete AuditAction = "eliminar"
	ActionLogin  AuditAction = "login"
	ActionLogout AuditAction = "logout"
	ActionBackup AuditAction = "backup"
	ActionExport AuditAction = "exportar"
)

// AuditEntity тип сущности в журнале аудита
type AuditEntity string

const (
	EntityExtinguisher     AuditEntity = "extintor"
	EntitySite             AuditEntity = "sede"
	EntityLocation         AuditEntity = "ubicacion"
	EntityExtinguisherType AuditEntity = "tipo_extintor"
	EntityUser             AuditEntity = "usuario"
	EntityMaintenance      AuditEntity = "mantenimiento"
	EntitySystem           AuditEntity = "sistema"
)

// ValidAuditAction проверяет действие аудита
func ValidAuditAction(s string) bool {
	switch AuditAction(s) {
	case ActionCreate, ActionEdit, ActionDelete, ActionLogin, ActionLogout, ActionBackup, ActionExport:
		return true
	}
	return false
}

// ValidAuditEntity проверяет тип сущности аудита
func ValidAuditEntity(s string) bool {
	switch AuditEntity(s) {
	case EntityExtinguisher, EntitySite, EntityLocation, EntityExtinguisherType, EntityUser, EntityMaintenance, EntitySystem:
		return true
	}
	return false
}

// AuditLog неизменяемая запись журнала действий пользователей
type AuditLog struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	UserID      *uint          `json:"usuario_id" gorm:"column:usuario_id;index"`
	Action      AuditAction    `json:"accion" gorm:"column:accion;type:varchar(20);not null;index"`
	EntityType  AuditEntity    `json:"tipo_entidad" gorm:"column:tipo_entidad;type:varchar(30);not null;index"`
	EntityID    *string        `json:"entidad_id" gorm:"column:entidad_id;type:varchar(50)"`
	Description string         `json:"descripcion" gorm:"column:descripcion;type:text"`
	IP          string         `json:"ip" gorm:"column:ip;type:varchar(45)"`
	UserAgent   string         `json:"user_agent" gorm:"column:user_agent;type:varchar(255)"`
	Details     datatypes.JSON `json:"detalles,omitempty" gorm:"column:detalles"`

	// Связи
	User *User `json:"usuario,omitempty" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName задает имя таблицы для модели AuditLog
func (AuditLog) TableName() string {
	return "auditoria"
}
