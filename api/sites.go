package api

import (
	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin"
)

type SiteRequest struct {
	Name    *string `json:"nombre" binding:"omitempty,max=100"`
	Address *string `json:"direccion" binding:"omitempty,max=255"`
}

func (r SiteRequest) input() services.SiteInput {
	return services.SiteInput{Name: r.Name, Address: r.Address}
}

// SiteAPI обработчики объектов (sedes)
type SiteAPI struct {
	handlerBase
	sites *services.SiteService
}

// NewSiteAPI создает новый экземпляр SiteAPI
func NewSiteAPI(base handlerBase, sites *services.SiteService) *SiteAPI {
	return &SiteAPI{handlerBase: base, sites: sites}
}

// GetSites GET /api/sedes
func (api *SiteAPI) GetSites(c *gin.Context) {
	page, limit, err := pageParams(c)
	if err != nil {
		api.respondError(c, err)
		return
	}

	sites, pagination, err := api.sites.List(c.Query("search"), page, limit)
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondList(c, sites, pagination)
}

// GetSite GET /api/sedes/:id
func (api *SiteAPI) GetSite(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	site, err := api.sites.GetByID(id)
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondOK(c, site, "")
}

// CreateSite POST /api/sedes
func (api *SiteAPI) CreateSite(c *gin.Context) {
	var req SiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondError(c, bindingError(err))
		return
	}

	site, err := api.sites.Create(req.input())
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionCreate, models.EntitySite, services.EntityID(site.ID), "Sede creada: "+site.Name, nil)
	respondCreated(c, site, "Sede creada")
}

// UpdateSite PUT /api/sedes/:id
func (api *SiteAPI) UpdateSite(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	var req SiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondError(c, bindingError(err))
		return
	}

	site, err := api.sites.Update(id, req.input())
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionEdit, models.EntitySite, services.EntityID(site.ID), "Sede actualizada: "+site.Name, nil)
	respondOK(c, site, "Sede actualizada")
}

// DeleteSite DELETE /api/sedes/:id; запрещено, пока есть зоны
func (api *SiteAPI) DeleteSite(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	site, err := api.sites.Delete(id)
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionDelete, models.EntitySite, services.EntityID(site.ID), "Sede eliminada: "+site.Name, nil)
	respondOK(c, nil, "Sede eliminada")
}
