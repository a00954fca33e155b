package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin"
)

// ReportsAPI выгрузка отчетов
type ReportsAPI struct {
	handlerBase
	reports *services.ReportService
}

// NewReportsAPI создает новый экземпляр ReportsAPI
func NewReportsAPI(base handlerBase, reports *services.ReportService) *ReportsAPI {
	return &ReportsAPI{handlerBase: base, reports: reports}
}

// ExportExtinguishers GET /api/reportes/extintores?formato=xlsx|pdf|csv с фильтрами списка
func (api *ReportsAPI) ExportExtinguishers(c *gin.Context) {
	filters, err := extinguisherFilters(c)
	if err != nil {
		api.respondError(c, err)
		return
	}

	// Отчет собирается в буфер, чтобы ошибка генерации вернулась обычным JSON-ответом
	var buf bytes.Buffer
	report, err := api.reports.ExportExtinguishers(&buf, c.DefaultQuery("formato", string(models.ReportFormatExcel)), filters)
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionExport, models.EntityExtinguisher, "", "Reporte de extintores exportado",
		map[string]interface{}{"formato": report.Format, "filas": report.Rows, "archivo": report.Filename})

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Header("X-Total-Count", strconv.Itoa(report.Rows))
	c.Data(http.StatusOK, report.Format.ContentType(), buf.Bytes())
}
