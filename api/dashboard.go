package api

import (
	"strconv"

	"backend_extintores/services"

	"github.com/gin-gonic/gin"
)

// DashboardAPI сводная статистика
type DashboardAPI struct {
	handlerBase
	dashboard *services.DashboardService
}

// NewDashboardAPI создает новый экземпляр DashboardAPI
func NewDashboardAPI(base handlerBase, dashboard *services.DashboardService) *DashboardAPI {
	return &DashboardAPI{handlerBase: base, dashboard: dashboard}
}

// GetStats GET /api/dashboard/stats?horizonte_dias=60
func (api *DashboardAPI) GetStats(c *gin.Context) {
	horizon := 0
	if raw := c.Query("horizonte_dias"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			api.respondError(c, services.FieldError("horizonte_dias", "Debe ser un entero"))
			return
		}
		horizon = v
	}

	stats, err := api.dashboard.GetStats(c.Request.Context(), horizon)
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondOK(c, stats, "")
}
