package models

import "time"

// Location представляет зону внутри объекта (например, "Cocina")
type Location struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AreaName    string `json:"nombre_area" gorm:"column:nombre_area;type:varchar(100);not null;uniqueIndex:idx_ubicaciones_sede_area,priority:2"`
	Description string `json:"descripcion" gorm:"column:descripcion;type:text"`
	SiteID      uint   `json:"sede_id" gorm:"column:sede_id;not null;uniqueIndex:idx_ubicaciones_sede_area,priority:1"`

	// Связи
	Site          *Site          `json:"sede,omitempty" gorm:"foreignKey:SiteID"`
	Extinguishers []Extinguisher `json:"extintores,omitempty" gorm:"foreignKey:LocationID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName задает имя таблицы для модели Location
func (Location) TableName() string {
	return "ubicaciones"
}
