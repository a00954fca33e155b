package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrorKind категория ошибки прикладного уровня
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

// HTTPStatus код HTTP для категории
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AppError ошибка с категорией, сообщением для клиента и ошибками по полям
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Sentinel-ошибки аутентификации
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
)

// NewValidationError ошибка валидации со списком полей
func NewValidationError(message string, fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Fields: fields}
}

// FieldError ошибка валидации одного поля
func FieldError(field, message string) *AppError {
	return NewValidationError("Datos inválidos", map[string]string{field: message})
}

// NewNotFoundError сущность не найдена
func NewNotFoundError(entity string) *AppError {
	return &AppError{Kind: KindNotFound, Message: entity + " no encontrado", Err: gorm.ErrRecordNotFound}
}

// NewConflictError нарушение уникальности или ссылочной целостности
func NewConflictError(message string, err error) *AppError {
	return &AppError{Kind: KindConflict, Message: message, Err: err}
}

// NewUnauthorizedError неверные учетные данные
func NewUnauthorizedError(message string, err error) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message, Err: err}
}

// NewForbiddenError недостаточно прав
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// NewInternalError непредвиденная ошибка
func NewInternalError(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "Error interno del servidor", Err: err}
}

// AsAppError приводит любую ошибку к AppError (неизвестные считаются внутренними)
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}

// IsKind проверяет категорию ошибки
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// isDuplicateError распознает нарушение уникальности
func isDuplicateError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

// isForeignKeyError распознает нарушение внешнего ключа
func isForeignKeyError(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key")
}

// translateDBError переводит ошибку хранилища в AppError; уникальность дает Conflict с duplicateMsg
func translateDBError(err error, entity, duplicateMsg string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NewNotFoundError(entity)
	case isDuplicateError(err):
		return NewConflictError(duplicateMsg, err)
	case isForeignKeyError(err):
		return NewConflictError("La operación viola una relación con otros registros", err)
	}
	return NewInternalError(err)
}
