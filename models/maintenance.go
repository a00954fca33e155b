package models

import "time"

// EventType тип события обслуживания
type EventType string

const (
	EventInspection  EventType = "inspeccion"
	EventRecharge    EventType = "recarga"
	EventRepair      EventType = "reparacion"
	EventIncident    EventType = "incidente"
	EventReplacement EventType = "reemplazo"
)

// ValidEventType проверяет тип события
func ValidEventType(s string) bool {
	switch EventType(s) {
	case EventInspection, EventRecharge, EventRepair, EventIncident, EventReplacement:
		return true
	}
	return false
}

// CountsAsMaintenance сообщает, обновляет ли событие дату последнего обслуживания
func (t EventType) CountsAsMaintenance() bool {
	return t == EventInspection || t == EventRecharge
}

// MaintenanceEvent запись истории обслуживания огнетушителя
type MaintenanceEvent struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`

	ExtinguisherID uint      `json:"extintor_id" gorm:"column:extintor_id;not null;index"`
	Date           time.Time `json:"fecha" gorm:"column:fecha;not null;index"`
	EventType      EventType `json:"tipo_evento" gorm:"column:tipo_evento;type:varchar(20);not null;index"`
	Description    string    `json:"descripcion" gorm:"column:descripcion;type:text"`
	TechnicianID   *uint     `json:"tecnico_id" gorm:"column:tecnico_id;index"`
	EvidencePath   *string   `json:"evidencia_path" gorm:"column:evidencia_path;type:varchar(255)"`

	// Связи
	Extinguisher *Extinguisher `json:"extintor,omitempty" gorm:"foreignKey:ExtinguisherID"`
	Technician   *User         `json:"tecnico,omitempty" gorm:"foreignKey:TechnicianID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName задает имя таблицы для модели MaintenanceEvent
func (MaintenanceEvent) TableName() string {
	return "mantenimientos"
}
