package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"backend_extintores/middleware"
	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin"
)

// parseID извлекает положительный целый параметр пути
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, services.FieldError(name, "Debe ser un entero positivo")
	}
	return uint(id), nil
}

func queryUint(c *gin.Context, key string) (uint, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, services.FieldError(key, "Debe ser un entero positivo")
	}
	return uint(v), nil
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, services.FieldError(key, "Debe ser true o false")
	}
	return &v, nil
}

func queryDate(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, services.FieldError(key, "Fecha inválida: use YYYY-MM-DD")
	}
	return &d, nil
}

// pageParams читает page и limit; limit сверх максимума ограничивается сервисом
func pageParams(c *gin.Context) (int, int, error) {
	page, limit := 1, models.DefaultPageLimit
	if raw := c.Query("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, 0, services.FieldError("page", "Debe ser un entero positivo")
		}
		if v > models.MaxPage {
			return 0, 0, services.FieldError("page", "Número de página demasiado grande")
		}
		page = v
	}
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, 0, services.FieldError("limit", "Debe ser un entero positivo")
		}
		limit = v
	}
	return page, limit, nil
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formUpload открывает файл из multipart-поля; nil, если поле не передано.
// Вызывающий обязан вызвать close
func formUpload(c *gin.Context, field string) (*services.Upload, func(), error) {
	noop := func() {}
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, services.FieldError(field, "Archivo inválido")
	}

	f, err := header.Open()
	if err != nil {
		return nil, noop, services.NewInternalError(err)
	}
	return &services.Upload{Filename: header.Filename, Size: header.Size, Reader: f}, func() { f.Close() }, nil
}

// formString значение поля формы; nil, если поле отсутствует
func formString(c *gin.Context, key string) *string {
	if v, ok := c.GetPostForm(key); ok {
		return &v
	}
	return nil
}

// formOptional пустое значение поля формы означает явное обнуление
func formOptional(c *gin.Context, key string) services.Optional[string] {
	v, ok := c.GetPostForm(key)
	if !ok {
		return services.Optional[string]{}
	}
	if strings.TrimSpace(v) == "" {
		return services.Null[string]()
	}
	return services.Some(v)
}

func formUint(errs map[string]string, c *gin.Context, key string) *uint {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil || n == 0 {
		errs[key] = "Debe ser un entero positivo"
		return nil
	}
	id := uint(n)
	return &id
}

// parseDateField разбирает необязательную дату из тела запроса
func parseDateField(errs map[string]string, key string, raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	d, err := models.ParseDate(*raw)
	if err != nil {
		errs[key] = "Fecha inválida: use YYYY-MM-DD"
		return nil
	}
	return &d
}

func fieldsError(errs map[string]string) error {
	if len(errs) == 0 {
		return nil
	}
	return services.NewValidationError("Datos inválidos", errs)
}

// auditRecorder ставит записи аудита в очередь после успешной операции
type auditRecorder struct {
	audit *services.AuditService
}

func (a auditRecorder) record(c *gin.Context, action models.AuditAction, entity models.AuditEntity, entityID, description string, details map[string]interface{}) {
	if a.audit == nil {
		return
	}
	a.audit.Record(services.AuditEntry{
		UserID:      middleware.GetCurrentUserID(c),
		Action:      action,
		EntityType:  entity,
		EntityID:    entityID,
		Description: description,
		IP:          c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		Details:     details,
	})
}
