package api

import (
	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin"
)

// NotificationAPI журнал оповещений и ручной запуск оповещения о сроках
type NotificationAPI struct {
	handlerBase
	notifications *services.NotificationService
	scheduler     *services.SchedulerService
}

// NewNotificationAPI создает новый экземпляр NotificationAPI
func NewNotificationAPI(base handlerBase, notifications *services.NotificationService, scheduler *services.SchedulerService) *NotificationAPI {
	return &NotificationAPI{handlerBase: base, notifications: notifications, scheduler: scheduler}
}

// GetNotificationLogs GET /api/notificaciones?status=sent|failed
func (api *NotificationAPI) GetNotificationLogs(c *gin.Context) {
	page, limit, err := pageParams(c)
	if err != nil {
		api.respondError(c, err)
		return
	}

	status := c.Query("status")
	if status != "" && status != models.NotificationStatusSent && status != models.NotificationStatusFailed {
		api.respondError(c, services.FieldError("status", "Valor no permitido: sent, failed"))
		return
	}

	logs, pagination, err := api.notifications.GetNotificationLogs(status, page, limit)
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondList(c, logs, pagination)
}

// SendExpiryAlert POST /api/notificaciones/vencimientos; ошибка Telegram возвращается вместе с записью журнала
func (api *NotificationAPI) SendExpiryAlert(c *gin.Context) {
	entry, err := api.scheduler.RunExpiryAlert()
	if entry == nil && err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionCreate, models.EntitySystem, services.EntityID(entry.ID), "Alerta de vencimientos enviada",
		map[string]interface{}{"canal": entry.Channel, "extintores": entry.ItemCount, "estado": entry.Status})

	if err != nil {
		respondOK(c, entry, "La alerta se registró pero no pudo enviarse por Telegram")
		return
	}
	respondOK(c, entry, "Alerta enviada")
}
