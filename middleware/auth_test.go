package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend_extintores/config"
	"backend_extintores/models"
	"backend_extintores/services"
	"backend_extintores/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupAuth(t *testing.T) (*gorm.DB, *services.AuthService, *gin.Engine) {
	t.Helper()
	db := testutils.SetupTestDB(t)
	logger := config.NewTestLogger()
	auth := services.NewAuthService(db, config.JWTConfig{Secret: testutils.TestJWTSecret, ExpiresIn: time.Hour, Issuer: "test"}, logger)
	am := NewAuthMiddleware(auth, logger)

	router := gin.New()
	protected := router.Group("/api", am.RequireAuth())
	protected.GET("/me", func(c *gin.Context) {
		user := GetCurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "rol": user.Role, "user_id": *GetCurrentUserID(c)})
	})
	protected.DELETE("/extintores/1", am.RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	protected.POST("/extintores", am.RequireRoles(models.RoleAdmin, models.RoleTechnician), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return db, auth, router
}

func doRequest(router *gin.Engine, method, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	db, auth, router := setupAuth(t)
	user := testutils.CreateTestUser(t, db, "tecnico@example.com", models.RoleTechnician)
	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	expiredAuth := services.NewAuthService(db, config.JWTConfig{Secret: testutils.TestJWTSecret, ExpiresIn: time.Hour, Issuer: "test"}, config.NewTestLogger())
	expiredAuth.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredAuth.GenerateToken(user)
	require.NoError(t, err)

	otherAuth := services.NewAuthService(db, config.JWTConfig{Secret: "otro-secreto-0123456789abcdef0123", Issuer: "test"}, config.NewTestLogger())
	forged, err := otherAuth.GenerateToken(user)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"malformed header", "Token " + token, http.StatusForbidden},
		{"garbage token", "Bearer abc.def.ghi", http.StatusForbidden},
		{"expired token", "Bearer " + expired, http.StatusForbidden},
		{"wrong signature", "Bearer " + forged, http.StatusForbidden},
		{"valid token", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/api/me", tt.header)
			assert.Equal(t, tt.status, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.status == http.StatusOK {
				assert.Equal(t, "tecnico", body["rol"])
				assert.Equal(t, float64(user.ID), body["user_id"])
			} else {
				assert.Equal(t, false, body["success"])
				assert.NotEmpty(t, body["error"])
				assert.NotEmpty(t, body["timestamp"])
			}
		})
	}
}

func TestRequireAuthInactiveUser(t *testing.T) {
	db, auth, router := setupAuth(t)
	user := testutils.CreateTestUser(t, db, "consulta@example.com", models.RoleViewer)
	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Update("activo", false).Error)

	w := doRequest(router, http.MethodGet, "/api/me", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoles(t *testing.T) {
	db, auth, router := setupAuth(t)

	tokens := map[models.Role]string{}
	for _, role := range []models.Role{models.RoleAdmin, models.RoleTechnician, models.RoleViewer} {
		user := testutils.CreateTestUser(t, db, string(role)+"@example.com", role)
		token, err := auth.GenerateToken(user)
		require.NoError(t, err)
		tokens[role] = "Bearer " + token
	}

	tests := []struct {
		role   models.Role
		method string
		path   string
		status int
	}{
		{models.RoleAdmin, http.MethodDelete, "/api/extintores/1", http.StatusNoContent},
		{models.RoleTechnician, http.MethodDelete, "/api/extintores/1", http.StatusForbidden},
		{models.RoleViewer, http.MethodDelete, "/api/extintores/1", http.StatusForbidden},
		{models.RoleAdmin, http.MethodPost, "/api/extintores", http.StatusCreated},
		{models.RoleTechnician, http.MethodPost, "/api/extintores", http.StatusCreated},
		{models.RoleViewer, http.MethodPost, "/api/extintores", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+" "+tt.method, func(t *testing.T) {
			w := doRequest(router, tt.method, tt.path, tokens[tt.role])
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
