package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin"
)

// AuditAPI просмотр и выгрузка журнала аудита
type AuditAPI struct {
	handlerBase
	audit *services.AuditService
}

// NewAuditAPI создает новый экземпляр AuditAPI
func NewAuditAPI(base handlerBase, audit *services.AuditService) *AuditAPI {
	return &AuditAPI{handlerBase: base, audit: audit}
}

// auditFilters usuario_id, accion, entidad, entidad_id, ip, desde, hasta
func auditFilters(c *gin.Context) (services.AuditFilters, error) {
	page, limit, err := pageParams(c)
	if err != nil {
		return services.AuditFilters{}, err
	}

	filters := services.AuditFilters{
		Action:     strings.TrimSpace(c.Query("accion")),
		EntityType: strings.TrimSpace(c.Query("entidad")),
		EntityID:   strings.TrimSpace(c.Query("entidad_id")),
		IPAddress:  strings.TrimSpace(c.Query("ip")),
		Page:       page,
		Limit:      limit,
	}

	if filters.Action != "" && !models.ValidAuditAction(filters.Action) {
		return filters, services.FieldError("accion", "Acción inválida")
	}
	if filters.EntityType != "" && !models.ValidAuditEntity(filters.EntityType) {
		return filters, services.FieldError("entidad", "Entidad inválida")
	}

	userID, err := queryUint(c, "usuario_id")
	if err != nil {
		return filters, err
	}
	if userID > 0 {
		filters.UserID = &userID
	}

	from, err := queryDate(c, "desde")
	if err != nil {
		return filters, err
	}
	if from != nil {
		filters.StartDate = *from
	}
	to, err := queryDate(c, "hasta")
	if err != nil {
		return filters, err
	}
	if to != nil {
		// hasta включительно
		filters.EndDate = to.Add(24*time.Hour - time.Nanosecond)
	}
	return filters, nil
}

// GetAuditLogs GET /api/auditoria
func (api *AuditAPI) GetAuditLogs(c *gin.Context) {
	filters, err := auditFilters(c)
	if err != nil {
		api.respondError(c, err)
		return
	}

	logs, pagination, err := api.audit.GetAuditLogs(filters)
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondList(c, logs, pagination)
}

// GetAuditStats GET /api/auditoria/stats?period=day|week|month
func (api *AuditAPI) GetAuditStats(c *gin.Context) {
	stats, err := api.audit.GetAuditStats(c.DefaultQuery("period", "week"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondOK(c, stats, "")
}

// ExportAuditLogs GET /api/auditoria/export; JSON-файл со всеми записями по фильтрам
func (api *AuditAPI) ExportAuditLogs(c *gin.Context) {
	filters, err := auditFilters(c)
	if err != nil {
		api.respondError(c, err)
		return
	}

	data, err := api.audit.ExportAuditLogs(filters)
	if err != nil {
		api.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("auditoria_%s.json", time.Now().Format("20060102_150405"))
	api.record(c, models.ActionExport, models.EntitySystem, "", "Exportación del registro de auditoría",
		map[string]interface{}{"archivo": filename})

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
