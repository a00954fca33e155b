package models

import (
	"time"
)

const (
	NotificationChannelTelegram = "telegram"
	NotificationChannelLog      = "log"

	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// NotificationLog запись об отправленном оповещении о сроках
type NotificationLog struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	// Основные поля
	Type         string     `json:"type" gorm:"type:varchar(50);not null"`    // expiry_alert
	Channel      string     `json:"channel" gorm:"type:varchar(20);not null"` // telegram, log
	Recipient    string     `json:"recipient"`                                // chat_id
	Message      string     `json:"message" gorm:"type:text;not null"`        // Текст сообщения
	Status       string     `json:"status" gorm:"type:varchar(20);not null"`  // sent, failed
	ErrorMessage string     `json:"error_message" gorm:"type:text"`           // Сообщение об ошибке
	SentAt       *time.Time `json:"sent_at"`                                  // Время отправки
	ItemCount    int        `json:"item_count"`                               // Сколько огнетушителей в оповещении
	ExternalID   string     `json:"external_id"`                              // Telegram message_id
}

// TableName задает имя таблицы для модели NotificationLog
func (NotificationLog) TableName() string {
	return "notificaciones"
}

// GetStatusDisplayName возвращает читаемое название статуса
func (nl *NotificationLog) GetStatusDisplayName() string {
	switch nl.Status {
	case NotificationStatusSent:
		return "Enviado"
	case NotificationStatusFailed:
		return "Error de envío"
	default:
		return "Desconocido"
	}
}
