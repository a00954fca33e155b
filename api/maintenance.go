package api

import (
	"strings"

	"backend_extintores/middleware"
	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type MaintenanceRequest struct {
	ExtinguisherID *uint   `json:"extintor_id" form:"extintor_id" binding:"required,gt=0"`
	Date           *string `json:"fecha" form:"fecha" binding:"required,dateonly"`
	EventType      *string `json:"tipo_evento" form:"tipo_evento" binding:"required,oneof=inspeccion recarga reparacion incidente reemplazo"`
	Description    *string `json:"descripcion" form:"descripcion" binding:"omitempty,max=2000"`
	TechnicianID   *uint   `json:"tecnico_id" form:"tecnico_id" binding:"omitempty,gt=0"`
}

// MaintenanceAPI обработчики истории обслуживания
type MaintenanceAPI struct {
	handlerBase
	maintenance *services.MaintenanceService
}

// NewMaintenanceAPI создает новый экземпляр MaintenanceAPI
func NewMaintenanceAPI(base handlerBase, maintenance *services.MaintenanceService) *MaintenanceAPI {
	return &MaintenanceAPI{handlerBase: base, maintenance: maintenance}
}

// GetMaintenanceEvents GET /api/mantenimientos?extintor_id&tipo_evento&desde&hasta
func (api *MaintenanceAPI) GetMaintenanceEvents(c *gin.Context) {
	page, limit, err := pageParams(c)
	if err != nil {
		api.respondError(c, err)
		return
	}

	filters := services.MaintenanceFilters{
		EventType: strings.TrimSpace(c.Query("tipo_evento")),
		Page:      page,
		Limit:     limit,
	}
	if filters.ExtinguisherID, err = queryUint(c, "extintor_id"); err != nil {
		api.respondError(c, err)
		return
	}
	if filters.TechnicianID, err = queryUint(c, "tecnico_id"); err != nil {
		api.respondError(c, err)
		return
	}
	if filters.From, err = queryDate(c, "desde"); err != nil {
		api.respondError(c, err)
		return
	}
	if filters.To, err = queryDate(c, "hasta"); err != nil {
		api.respondError(c, err)
		return
	}

	events, pagination, err := api.maintenance.List(filters)
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondList(c, events, pagination)
}

// GetExtinguisherHistory GET /api/extintores/:id/mantenimientos
func (api *MaintenanceAPI) GetExtinguisherHistory(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}
	page, limit, err := pageParams(c)
	if err != nil {
		api.respondError(c, err)
		return
	}

	events, pagination, err := api.maintenance.ListForExtinguisher(id, page, limit)
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondList(c, events, pagination)
}

// GetMaintenanceEvent GET /api/mantenimientos/:id
func (api *MaintenanceAPI) GetMaintenanceEvent(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	event, err := api.maintenance.GetByID(id)
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondOK(c, event, "")
}

// CreateMaintenanceEvent POST /api/mantenimientos (JSON или multipart с полем evidencia).
// Без tecnico_id техником считается текущий пользователь
func (api *MaintenanceAPI) CreateMaintenanceEvent(c *gin.Context) {
	var req MaintenanceRequest
	var evidence *services.Upload
	closeUpload := func() {}

	if isMultipart(c) {
		if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
			api.respondError(c, bindingError(err))
			return
		}
		var err error
		if evidence, closeUpload, err = formUpload(c, "evidencia"); err != nil {
			api.respondError(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		api.respondError(c, bindingError(err))
		return
	}
	defer closeUpload()

	errs := map[string]string{}
	in := services.MaintenanceInput{
		ExtinguisherID: req.ExtinguisherID,
		Date:           parseDateField(errs, "fecha", req.Date),
		EventType:      req.EventType,
		Description:    req.Description,
		TechnicianID:   req.TechnicianID,
		Evidence:       evidence,
	}
	if err := fieldsError(errs); err != nil {
		api.respondError(c, err)
		return
	}
	if in.TechnicianID == nil {
		if user := middleware.GetCurrentUser(c); user != nil && user.Role != models.RoleViewer {
			in.TechnicianID = &user.ID
		}
	}

	event, err := api.maintenance.Create(in)
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionCreate, models.EntityMaintenance, services.EntityID(event.ID),
		"Mantenimiento registrado: "+string(event.EventType)+" extintor #"+services.EntityID(event.ExtinguisherID),
		map[string]interface{}{"extintor_id": event.ExtinguisherID, "fecha": event.Date.Format("2006-01-02")})
	respondCreated(c, event, "Mantenimiento registrado")
}

// DeleteMaintenanceEvent DELETE /api/mantenimientos/:id
func (api *MaintenanceAPI) DeleteMaintenanceEvent(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	event, err := api.maintenance.Delete(id)
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionDelete, models.EntityMaintenance, services.EntityID(event.ID),
		"Mantenimiento eliminado del extintor #"+services.EntityID(event.ExtinguisherID), nil)
	respondOK(c, nil, "Mantenimiento eliminado")
}
