package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtinguisherStatus рабочий статус огнетушителя
type ExtinguisherStatus string

const (
	StatusActive      ExtinguisherStatus = "activo"
	StatusMaintenance ExtinguisherStatus = "mantenimiento"
	StatusExpired     ExtinguisherStatus = "vencido" // только вычисляемый, в БД не хранится
	StatusRetired     ExtinguisherStatus = "retirado"
)

// ValidStoredStatus проверяет статус, который можно записать в БД
func ValidStoredStatus(s string) bool {
	switch ExtinguisherStatus(s) {
	case StatusActive, StatusMaintenance, StatusRetired:
		return true
	}
	return false
}

// ValidStatusFilter проверяет статус для фильтрации (включая вычисляемый vencido)
func ValidStatusFilter(s string) bool {
	return ValidStoredStatus(s) || ExtinguisherStatus(s) == StatusExpired
}

// Extinguisher огнетушитель, центральная сущность системы
type Extinguisher struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	// Идентификация
	InternalCode *string `json:"codigo_interno" gorm:"column:codigo_interno;type:varchar(50);uniqueIndex"` // NULL допускается многократно
	Description  string  `json:"descripcion" gorm:"column:descripcion;type:text"`

	// Ссылки
	TypeID        string `json:"tipo_id" gorm:"column:tipo_id;type:varchar(20);not null;index"`
	LocationID    uint   `json:"ubicacion_id" gorm:"column:ubicacion_id;not null;index"`
	ResponsibleID *uint  `json:"responsable_id" gorm:"column:responsable_id;index"`

	// Даты (календарные, хранятся как полночь UTC)
	ExpirationDate  time.Time  `json:"fecha_vencimiento" gorm:"column:fecha_vencimiento;not null;index"`
	LastMaintenance *time.Time `json:"ultimo_mantenimiento" gorm:"column:ultimo_mantenimiento;index"`

	ImagePath  *string             `json:"imagen_path" gorm:"column:imagen_path;type:varchar(255)"`
	Status     ExtinguisherStatus  `json:"estado" gorm:"column:estado;type:varchar(20);not null;default:activo;index"`
	CapacityKg decimal.NullDecimal `json:"capacidad_kg" gorm:"column:capacidad_kg;type:decimal(6,2)"`

	// Связи
	Type              *ExtinguisherType  `json:"tipo,omitempty" gorm:"foreignKey:TypeID"`
	Location          *Location          `json:"ubicacion,omitempty" gorm:"foreignKey:LocationID"`
	Responsible       *User              `json:"responsable,omitempty" gorm:"foreignKey:ResponsibleID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	MaintenanceEvents []MaintenanceEvent `json:"mantenimientos,omitempty" gorm:"foreignKey:ExtinguisherID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName задает имя таблицы для модели Extinguisher
func (Extinguisher) TableName() string {
	return "extintores"
}

// ExtinguisherView огнетушитель с вычисляемыми полями для ответа API
type ExtinguisherView struct {
	Extinguisher
	DaysUntilExpiration int                `json:"dias_para_vencer"`
	ExpirationStatus    ExpirationBucket   `json:"estado_vencimiento"`
	MaintenancePending  bool               `json:"mantenimiento_pendiente"`
	EffectiveStatus     ExtinguisherStatus `json:"estado_efectivo"`
	StatusColor         string             `json:"color_estado"`
	StatusIcon          string             `json:"icono_estado"`
}

// NewExtinguisherView вычисляет производные поля на дату today
func NewExtinguisherView(e Extinguisher, today time.Time) ExtinguisherView {
	today = DateOnly(today)
	days := DaysUntilExpiration(e.ExpirationDate, today)
	bucket := ExpirationBucketFor(days)
	display := BucketDisplay(bucket)

	return ExtinguisherView{
		Extinguisher:        e,
		DaysUntilExpiration: days,
		ExpirationStatus:    bucket,
		MaintenancePending:  MaintenanceDue(e.LastMaintenance, today),
		EffectiveStatus:     EffectiveStatus(e.Status, bucket),
		StatusColor:         display.Color,
		StatusIcon:          display.Icon,
	}
}

// NewExtinguisherViews вычисляет производные поля для списка с единым today
func NewExtinguisherViews(list []Extinguisher, today time.Time) []ExtinguisherView {
	views := make([]ExtinguisherView, 0, len(list))
	for _, e := range list {
		views = append(views, NewExtinguisherView(e, today))
	}
	return views
}
