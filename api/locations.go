package api

import (
	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin"
)

type LocationRequest struct {
	AreaName    *string `json:"nombre_area" binding:"omitempty,max=100"`
	Description *string `json:"descripcion" binding:"omitempty,max=1000"`
	SiteID      *uint   `json:"sede_id" binding:"omitempty,gt=0"`
}

func (r LocationRequest) input() services.LocationInput {
	return services.LocationInput{AreaName: r.AreaName, Description: r.Description, SiteID: r.SiteID}
}

// LocationAPI обработчики зон (ubicaciones)
type LocationAPI struct {
	handlerBase
	locations *services.LocationService
}

// NewLocationAPI создает новый экземпляр LocationAPI
func NewLocationAPI(base handlerBase, locations *services.LocationService) *LocationAPI {
	return &LocationAPI{handlerBase: base, locations: locations}
}

// GetLocations GET /api/ubicaciones?sede_id=
func (api *LocationAPI) GetLocations(c *gin.Context) {
	page, limit, err := pageParams(c)
	if err != nil {
		api.respondError(c, err)
		return
	}
	siteID, err := queryUint(c, "sede_id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	locations, pagination, err := api.locations.List(services.LocationFilters{
		SiteID: siteID,
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondList(c, locations, pagination)
}

// GetLocation GET /api/ubicaciones/:id
func (api *LocationAPI) GetLocation(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	location, err := api.locations.GetByID(id)
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondOK(c, location, "")
}

// CreateLocation POST /api/ubicaciones
func (api *LocationAPI) CreateLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondError(c, bindingError(err))
		return
	}

	location, err := api.locations.Create(req.input())
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionCreate, models.EntityLocation, services.EntityID(location.ID), "Ubicación creada: "+location.AreaName, nil)
	respondCreated(c, location, "Ubicación creada")
}

// UpdateLocation PUT /api/ubicaciones/:id
func (api *LocationAPI) UpdateLocation(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondError(c, bindingError(err))
		return
	}

	location, err := api.locations.Update(id, req.input())
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionEdit, models.EntityLocation, services.EntityID(location.ID), "Ubicación actualizada: "+location.AreaName, nil)
	respondOK(c, location, "Ubicación actualizada")
}

// DeleteLocation DELETE /api/ubicaciones/:id; запрещено, пока в зоне есть огнетушители
func (api *LocationAPI) DeleteLocation(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	location, err := api.locations.Delete(id)
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionDelete, models.EntityLocation, services.EntityID(location.ID), "Ubicación eliminada: "+location.AreaName, nil)
	respondOK(c, nil, "Ubicación eliminada")
}
