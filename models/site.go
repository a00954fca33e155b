package models

import "time"

// Site представляет объект (здание, филиал), в котором размещаются зоны
type Site struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `json:"nombre" gorm:"column:nombre;type:varchar(100);uniqueIndex;not null"`
	Address string `json:"direccion" gorm:"column:direccion;type:varchar(255)"`

	// Связи
	Locations []Location `json:"ubicaciones,omitempty" gorm:"foreignKey:SiteID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName задает имя таблицы для модели Site
func (Site) TableName() string {
	return "sedes"
}
