package api

import (
	"strconv"
	"strings"
	"time"

	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
)

// ExtinguisherRequest тело создания и изменения огнетушителя.
// Поля Optional различают отсутствие поля и явный null
type ExtinguisherRequest struct {
	InternalCode    services.Optional[string]          `json:"codigo_interno"`
	Description     *string                            `json:"descripcion" binding:"omitempty,max=1000"`
	TypeID          *string                            `json:"tipo_id" binding:"omitempty,tipocode"`
	LocationID      *uint                              `json:"ubicacion_id" binding:"omitempty,gt=0"`
	ResponsibleID   services.Optional[uint]            `json:"responsable_id"`
	ExpirationDate  *string                            `json:"fecha_vencimiento" binding:"omitempty,dateonly"`
	LastMaintenance services.Optional[string]          `json:"ultimo_mantenimiento"`
	Status          *string                            `json:"estado" binding:"omitempty,oneof=activo mantenimiento retirado"`
	CapacityKg      services.Optional[decimal.Decimal] `json:"capacidad_kg"`
	RemoveImage     bool                               `json:"eliminar_imagen"`
}

func (r ExtinguisherRequest) input() (services.ExtinguisherInput, error) {
	errs := map[string]string{}
	in := services.ExtinguisherInput{
		InternalCode:   r.InternalCode,
		Description:    r.Description,
		TypeID:         r.TypeID,
		LocationID:     r.LocationID,
		ResponsibleID:  r.ResponsibleID,
		ExpirationDate: parseDateField(errs, "fecha_vencimiento", r.ExpirationDate),
		Status:         r.Status,
		CapacityKg:     r.CapacityKg,
		RemoveImage:    r.RemoveImage,
	}

	if r.LastMaintenance.Set {
		in.LastMaintenance = services.Null[time.Time]()
		if r.LastMaintenance.Value != nil && strings.TrimSpace(*r.LastMaintenance.Value) != "" {
			if d := parseDateField(errs, "ultimo_mantenimiento", r.LastMaintenance.Value); d != nil {
				in.LastMaintenance = services.Some(*d)
			}
		}
	}
	return in, fieldsError(errs)
}

// extinguisherRequestFromForm собирает запрос из multipart-формы
func extinguisherRequestFromForm(c *gin.Context) (ExtinguisherRequest, error) {
	errs := map[string]string{}
	req := ExtinguisherRequest{
		InternalCode:    formOptional(c, "codigo_interno"),
		Description:     formString(c, "descripcion"),
		TypeID:          formString(c, "tipo_id"),
		LocationID:      formUint(errs, c, "ubicacion_id"),
		ExpirationDate:  formString(c, "fecha_vencimiento"),
		LastMaintenance: formOptional(c, "ultimo_mantenimiento"),
		Status:          formString(c, "estado"),
	}

	if responsible := formOptional(c, "responsable_id"); responsible.Set {
		req.ResponsibleID = services.Null[uint]()
		if responsible.Value != nil {
			if id := formUint(errs, c, "responsable_id"); id != nil {
				req.ResponsibleID = services.Some(*id)
			}
		}
	}
	if capacity := formOptional(c, "capacidad_kg"); capacity.Set {
		req.CapacityKg = services.Null[decimal.Decimal]()
		if capacity.Value != nil {
			d, err := decimal.NewFromString(strings.TrimSpace(*capacity.Value))
			if err != nil {
				errs["capacidad_kg"] = "Debe ser un número"
			} else {
				req.CapacityKg = services.Some(d)
			}
		}
	}
	if raw, ok := c.GetPostForm("eliminar_imagen"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			errs["eliminar_imagen"] = "Debe ser true o false"
		}
		req.RemoveImage = v
	}
	if err := fieldsError(errs); err != nil {
		return req, err
	}

	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return req, bindingError(err)
	}
	return req, nil
}

// extinguisherFilters фильтры списка из query; те же используются в отчетах
func extinguisherFilters(c *gin.Context) (services.ExtinguisherFilters, error) {
	page, limit, err := pageParams(c)
	if err != nil {
		return services.ExtinguisherFilters{}, err
	}
	filters := services.ExtinguisherFilters{
		TypeID:           strings.ToUpper(strings.TrimSpace(c.Query("tipo_id"))),
		Status:           c.Query("estado"),
		ExpirationStatus: c.Query("estado_vencimiento"),
		Search:           strings.TrimSpace(c.Query("search")),
		Page:             page,
		Limit:            limit,
		SortBy:           c.Query("sort_by"),
		SortOrder:        strings.ToLower(c.Query("sort_order")),
	}
	if filters.LocationID, err = queryUint(c, "ubicacion_id"); err != nil {
		return filters, err
	}
	if filters.SiteID, err = queryUint(c, "sede_id"); err != nil {
		return filters, err
	}
	if filters.MaintenancePending, err = queryBool(c, "mantenimiento_pendiente"); err != nil {
		return filters, err
	}
	return filters, filters.Validate()
}

// ExtinguisherAPI обработчики огнетушителей
type ExtinguisherAPI struct {
	handlerBase
	extinguishers *services.ExtinguisherService
}

// NewExtinguisherAPI создает новый экземпляр ExtinguisherAPI
func NewExtinguisherAPI(base handlerBase, extinguishers *services.ExtinguisherService) *ExtinguisherAPI {
	return &ExtinguisherAPI{handlerBase: base, extinguishers: extinguishers}
}

// GetExtinguishers GET /api/extintores
func (api *ExtinguisherAPI) GetExtinguishers(c *gin.Context) {
	filters, err := extinguisherFilters(c)
	if err != nil {
		api.respondError(c, err)
		return
	}

	views, pagination, err := api.extinguishers.List(filters)
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondList(c, views, pagination)
}

// GetExtinguisher GET /api/extintores/:id
func (api *ExtinguisherAPI) GetExtinguisher(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	view, err := api.extinguishers.GetByID(id)
	if err != nil {
		api.respondError(c, err)
		return
	}
	respondOK(c, view, "")
}

// readInput разбирает JSON или multipart с полем imagen
func (api *ExtinguisherAPI) readInput(c *gin.Context) (services.ExtinguisherInput, func(), error) {
	noop := func() {}
	var req ExtinguisherRequest
	var upload *services.Upload
	closeUpload := noop

	if isMultipart(c) {
		var err error
		if req, err = extinguisherRequestFromForm(c); err != nil {
			return services.ExtinguisherInput{}, noop, err
		}
		if upload, closeUpload, err = formUpload(c, "imagen"); err != nil {
			return services.ExtinguisherInput{}, noop, err
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		return services.ExtinguisherInput{}, noop, bindingError(err)
	}

	in, err := req.input()
	if err != nil {
		closeUpload()
		return in, noop, err
	}
	in.Image = upload
	return in, closeUpload, nil
}

// CreateExtinguisher POST /api/extintores (JSON или multipart)
func (api *ExtinguisherAPI) CreateExtinguisher(c *gin.Context) {
	in, closeUpload, err := api.readInput(c)
	if err != nil {
		api.respondError(c, err)
		return
	}
	defer closeUpload()

	view, err := api.extinguishers.Create(in)
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionCreate, models.EntityExtinguisher, services.EntityID(view.ID), "Extintor creado: "+extinguisherLabel(view), nil)
	respondCreated(c, view, "Extintor creado")
}

// UpdateExtinguisher PUT /api/extintores/:id; меняются только переданные поля
func (api *ExtinguisherAPI) UpdateExtinguisher(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	in, closeUpload, err := api.readInput(c)
	if err != nil {
		api.respondError(c, err)
		return
	}
	defer closeUpload()

	view, err := api.extinguishers.Update(id, in)
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionEdit, models.EntityExtinguisher, services.EntityID(view.ID), "Extintor actualizado: "+extinguisherLabel(view), nil)
	respondOK(c, view, "Extintor actualizado")
}

// DeleteExtinguisher DELETE /api/extintores/:id
func (api *ExtinguisherAPI) DeleteExtinguisher(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		api.respondError(c, err)
		return
	}

	extinguisher, err := api.extinguishers.Delete(id)
	if err != nil {
		api.respondError(c, err)
		return
	}

	label := "#" + services.EntityID(extinguisher.ID)
	if extinguisher.InternalCode != nil {
		label = *extinguisher.InternalCode
	}
	api.record(c, models.ActionDelete, models.EntityExtinguisher, services.EntityID(extinguisher.ID), "Extintor eliminado: "+label, nil)
	respondOK(c, nil, "Extintor eliminado")
}

func extinguisherLabel(v *models.ExtinguisherView) string {
	if v.InternalCode != nil {
		return *v.InternalCode
	}
	return "#" + services.EntityID(v.ID)
}
