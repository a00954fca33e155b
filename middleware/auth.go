package middleware

import (
	"errors"
	"net/http"
	"time"

	"backend_extintores/models"
	"backend_extintores/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Ключи контекста gin
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "user_role"
)

// AuthMiddleware проверяет JWT и роли пользователя
type AuthMiddleware struct {
	auth   *services.AuthService
	logger *logrus.Logger
}

// NewAuthMiddleware создает новый экземпляр AuthMiddleware
func NewAuthMiddleware(auth *services.AuthService, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, logger: logger}
}

// RequireAuth без заголовка отвечает 401, с неверным, просроченным токеном или неактивным пользователем 403
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Token de acceso requerido")
			return
		}

		token, err := services.ExtractTokenFromHeader(authHeader)
		if err != nil {
			abortWithError(c, http.StatusForbidden, "Token inválido")
			return
		}

		user, _, err := am.auth.Authenticate(token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrExpiredToken):
				abortWithError(c, http.StatusForbidden, "Token expirado")
			case errors.Is(err, services.ErrInactiveUser):
				abortWithError(c, http.StatusForbidden, "Usuario inactivo")
			case errors.Is(err, services.ErrInvalidToken):
				abortWithError(c, http.StatusForbidden, "Token inválido")
			default:
				am.logger.WithError(err).Error("Ошибка проверки токена")
				abortWithError(c, http.StatusInternalServerError, "Error interno del servidor")
			}
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextRoleKey, user.Role)
		c.Next()
	}
}

// RequireRoles пропускает только пользователей с одной из ролей; ставится после RequireAuth
func (am *AuthMiddleware) RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetCurrentUser(c)
		if user == nil {
			abortWithError(c, http.StatusUnauthorized, "Token de acceso requerido")
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		am.logger.WithFields(logrus.Fields{
			"user_id": user.ID,
			"rol":     user.Role,
			"path":    c.FullPath(),
		}).Warn("Доступ запрещен по роли")
		abortWithError(c, http.StatusForbidden, "Permisos insuficientes")
	}
}

// RequireAdmin сокращение для RequireRoles(admin)
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return am.RequireRoles(models.RoleAdmin)
}

// GetCurrentUser возвращает текущего пользователя из контекста
func GetCurrentUser(c *gin.Context) *models.User {
	if user, exists := c.Get(ContextUserKey); exists {
		if u, ok := user.(*models.User); ok {
			return u
		}
	}
	return nil
}

// GetCurrentUserID возвращает ID текущего пользователя или nil
func GetCurrentUserID(c *gin.Context) *uint {
	if user := GetCurrentUser(c); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// abortWithError прерывает запрос ответом в общем формате API
func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":   false,
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
