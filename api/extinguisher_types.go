package api

import (
	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin"
)

type ExtinguisherTypeRequest struct {
	ID             string   `json:"id" binding:"omitempty,tipocode"`
	Name           *string  `json:"nombre" binding:"omitempty,max=100"`
	Description    *string  `json:"descripcion" binding:"omitempty,max=1000"`
	RecommendedUse *string  `json:"uso_recomendado" binding:"omitempty,max=255"`
	ColorHex       *string  `json:"color_hex" binding:"omitempty,hexcolor6"`
	FireClasses    []string `json:"clases_fuego" binding:"omitempty,dive,fireclass"`
	IconPath       *string  `json:"icono_path" binding:"omitempty,max=255"`
}

func (r ExtinguisherTypeRequest) input() services.ExtinguisherTypeInput {
	return services.ExtinguisherTypeInput{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		RecommendedUse: r.RecommendedUse,
		ColorHex:       r.ColorHex,
		FireClasses:    r.FireClasses,
		IconPath:       r.IconPath,
	}
}

// ExtinguisherTypeAPI обработчики каталога типов огнетушителей
type ExtinguisherTypeAPI struct {
	handlerBase
	types *services.ExtinguisherTypeService
}

// NewExtinguisherTypeAPI создает новый экземпляр ExtinguisherTypeAPI
func NewExtinguisherTypeAPI(base handlerBase, types *services.ExtinguisherTypeService) *ExtinguisherTypeAPI {
	return &ExtinguisherTypeAPI{handlerBase: base, types: types}
}

// GetTypes GET /api/tipos-extintores
func (api *ExtinguisherTypeAPI) GetTypes(c *gin.Context) {
	types, err := api.types.List(c.Query("search"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondOK(c, types, "")
}

// GetType GET /api/tipos-extintores/:id
func (api *ExtinguisherTypeAPI) GetType(c *gin.Context) {
	t, err := api.types.GetByID(c.Param("id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondOK(c, t, "")
}

// CreateType POST /api/tipos-extintores
func (api *ExtinguisherTypeAPI) CreateType(c *gin.Context) {
	var req ExtinguisherTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondError(c, bindingError(err))
		return
	}

	t, err := api.types.Create(req.input())
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionCreate, models.EntityExtinguisherType, t.ID, "Tipo de extintor creado: "+t.Name, nil)
	respondCreated(c, t, "Tipo de extintor creado")
}

// UpdateType PUT /api/tipos-extintores/:id; код не меняется
func (api *ExtinguisherTypeAPI) UpdateType(c *gin.Context) {
	var req ExtinguisherTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondError(c, bindingError(err))
		return
	}

	t, err := api.types.Update(c.Param("id"), req.input())
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionEdit, models.EntityExtinguisherType, t.ID, "Tipo de extintor actualizado: "+t.Name, nil)
	respondOK(c, t, "Tipo de extintor actualizado")
}

// DeleteType DELETE /api/tipos-extintores/:id; запрещено, пока тип используется
func (api *ExtinguisherTypeAPI) DeleteType(c *gin.Context) {
	t, err := api.types.Delete(c.Param("id"))
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionDelete, models.EntityExtinguisherType, t.ID, "Tipo de extintor eliminado: "+t.Name, nil)
	respondOK(c, nil, "Tipo de extintor eliminado")
}
