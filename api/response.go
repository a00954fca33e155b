package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Response общий формат ответа API
type Response struct {
	Success   bool              `json:"success"`
	Data      interface{}       `json:"data,omitempty"`
	Message   string            `json:"message,omitempty"`
	Error     string            `json:"error,omitempty"`
	Fields    map[string]string `json:"errors,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// ListData страница списка
type ListData struct {
	Items      interface{}       `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func respondOK(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Message: message, Timestamp: timestamp()})
}

func respondCreated(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data, Message: message, Timestamp: timestamp()})
}

func respondList(c *gin.Context, items interface{}, pagination models.Pagination) {
	respondOK(c, ListData{Items: items, Pagination: pagination}, "")
}

// errorResponder переводит ошибки сервисов в HTTP-ответы
type errorResponder struct {
	logger *logrus.Logger
	// exposeInternal показывает текст внутренних ошибок (только APP_ENV=development)
	exposeInternal bool
}

func (r errorResponder) respondError(c *gin.Context, err error) {
	appErr := services.AsAppError(err)

	if appErr.Kind == services.KindInternal {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": c.GetString("request_id"),
		}).Error("Внутренняя ошибка обработки запроса")
	}

	message := appErr.Message
	if appErr.Kind == services.KindInternal {
		message = "Error interno del servidor"
		if r.exposeInternal && appErr.Err != nil {
			message = appErr.Err.Error()
		}
	}

	c.AbortWithStatusJSON(appErr.Kind.HTTPStatus(), Response{
		Success:   false,
		Error:     message,
		Fields:    appErr.Fields,
		Timestamp: timestamp(),
	})
}

// bindingError ошибка разбора или валидации тела запроса
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = validationMessage(fe)
		}
		return services.NewValidationError("Datos inválidos", fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return services.FieldError(typeErr.Field, "Tipo de dato inválido")
	}
	return services.NewValidationError("Cuerpo de la solicitud inválido", nil)
}
