package api

import (
	"errors"

	"backend_extintores/middleware"
	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// handlerBase общие зависимости обработчиков: перевод ошибок и аудит
type handlerBase struct {
	errorResponder
	auditRecorder
}

func newHandlerBase(audit *services.AuditService, logger *logrus.Logger, exposeInternal bool) handlerBase {
	return handlerBase{
		errorResponder: errorResponder{logger: logger, exposeInternal: exposeInternal},
		auditRecorder:  auditRecorder{audit: audit},
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=150"`
	Password string `json:"password" binding:"required,max=128"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"password_actual" binding:"required"`
	NewPassword     string `json:"password_nuevo" binding:"required,min=8,max=72"`
}

// AuthAPI вход, выход и профиль текущего пользователя
type AuthAPI struct {
	handlerBase
	auth   *services.AuthService
	logger *logrus.Logger
}

// NewAuthAPI создает новый экземпляр AuthAPI
func NewAuthAPI(base handlerBase, auth *services.AuthService, logger *logrus.Logger) *AuthAPI {
	return &AuthAPI{handlerBase: base, auth: auth, logger: logger}
}

// Login POST /api/auth/login
func (api *AuthAPI) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondError(c, bindingError(err))
		return
	}

	result, err := api.auth.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrInactiveUser) {
			api.logger.WithFields(logrus.Fields{
				"email": req.Email,
				"ip":    c.ClientIP(),
			}).Warn("Неудачная попытка входа")
		}
		api.respondError(c, err)
		return
	}

	// Пользователь еще не в контексте, поэтому запись аудита собирается вручную
	c.Set(middleware.ContextUserKey, result.User)
	api.record(c, models.ActionLogin, models.EntityUser, services.EntityID(result.User.ID), "Inicio de sesión", nil)

	respondOK(c, result, "Inicio de sesión exitoso")
}

// Logout POST /api/auth/logout; токен удаляется клиентом
func (api *AuthAPI) Logout(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	api.record(c, models.ActionLogout, models.EntityUser, services.EntityID(user.ID), "Cierre de sesión", nil)
	respondOK(c, nil, "Sesión cerrada")
}

// Me GET /api/auth/me
func (api *AuthAPI) Me(c *gin.Context) {
	respondOK(c, middleware.GetCurrentUser(c), "")
}

// ChangePassword PUT /api/auth/password
func (api *AuthAPI) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondError(c, bindingError(err))
		return
	}

	user := middleware.GetCurrentUser(c)
	if err := api.auth.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		api.respondError(c, err)
		return
	}

	api.record(c, models.ActionEdit, models.EntityUser, services.EntityID(user.ID), "Cambio de contraseña", nil)
	respondOK(c, nil, "Contraseña actualizada")
}
