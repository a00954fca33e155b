package models

import (
	"time"

	"gorm.io/datatypes"
)

// FireClass класс пожара по классификации NFPA
type FireClass string

const (
	FireClassA FireClass = "A" // твердые горючие материалы
	FireClassB FireClass = "B" // горючие жидкости
	FireClassC FireClass = "C" // электрооборудование под напряжением
	FireClassD FireClass = "D" // металлы
	FireClassK FireClass = "K" // масла и жиры на кухне
)

// ValidFireClass проверяет, что класс пожара известен
func ValidFireClass(s string) bool {
	switch FireClass(s) {
	case FireClassA, FireClassB, FireClassC, FireClassD, FireClassK:
		return true
	}
	return false
}

// ExtinguisherType запись каталога типов огнетушителей (например, "ABC" порошковый)
type ExtinguisherType struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(20)"` // короткий код: ABC, CO2, K
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name           string                      `json:"nombre" gorm:"column:nombre;type:varchar(100);uniqueIndex;not null"`
	Description    string                      `json:"descripcion" gorm:"column:descripcion;type:text"`
	RecommendedUse string                      `json:"uso_recomendado" gorm:"column:uso_recomendado;type:text"`
	ColorHex       string                      `json:"color_hex" gorm:"column:color_hex;type:varchar(7)"`
	FireClasses    datatypes.JSONSlice[string] `json:"clases_fuego" gorm:"column:clases_fuego"`
	IconPath       string                      `json:"icono_path" gorm:"column:icono_path;type:varchar(255)"`

	// Связи
	Extinguishers []Extinguisher `json:"extintores,omitempty" gorm:"foreignKey:TypeID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName задает имя таблицы для модели ExtinguisherType
func (ExtinguisherType) TableName() string {
	return "tipos_extintores"
}
