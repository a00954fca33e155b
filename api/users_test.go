package api

import (
	"net/http"
	"testing"

	"backend_extintores/models"
	"backend_extintores/services"
	"backend_extintores/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersCRUD(t *testing.T) {
	ts := newTestServer(t)

	w := ts.as(t, models.RoleAdmin, http.MethodPost, "/api/usuarios", map[string]interface{}{
		"nombre":   "Ana Pérez",
		"email":    "Ana@Extintores.local",
		"password": "segura-123",
		"rol":      "tecnico",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.User
	decodeData(t, w, &created)
	assert.Equal(t, "ana@extintores.local", created.Email)
	assert.True(t, created.Active)
	assert.NotContains(t, w.Body.String(), "segura-123")

	w = ts.as(t, models.RoleAdmin, http.MethodPost, "/api/usuarios", map[string]interface{}{
		"nombre": "Otra", "email": "ana@extintores.local", "password": "segura-123", "rol": "consulta",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.as(t, models.RoleAdmin, http.MethodPost, "/api/usuarios", map[string]interface{}{
		"nombre": "Otra", "email": "otra@extintores.local", "password": "segura-123", "rol": "supervisor",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeResponse(t, w).Fields, "rol")

	path := "/api/usuarios/" + services.EntityID(created.ID)
	w = ts.as(t, models.RoleAdmin, http.MethodPut, path, map[string]interface{}{"rol": "consulta"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &created)
	assert.Equal(t, models.RoleViewer, created.Role)

	var users []models.User
	pagination := decodeList(t, ts.as(t, models.RoleAdmin, http.MethodGet, "/api/usuarios?rol=consulta", nil), &users)
	assert.Equal(t, int64(2), pagination.Total)

	w = ts.as(t, models.RoleAdmin, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = ts.as(t, models.RoleAdmin, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	ts.deps.Audit.Flush()
	assert.Equal(t, int64(1), auditCount(t, ts.db, models.ActionCreate, models.EntityUser))
	assert.Equal(t, int64(1), auditCount(t, ts.db, models.ActionDelete, models.EntityUser))
}

func TestLastAdminProtected(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.users[models.RoleAdmin]
	path := "/api/usuarios/" + services.EntityID(admin.ID)

	w := ts.as(t, models.RoleAdmin, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = ts.as(t, models.RoleAdmin, http.MethodPatch, path+"/desactivar", nil)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = ts.as(t, models.RoleAdmin, http.MethodPut, path, map[string]interface{}{"rol": "tecnico"})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// Со вторым администратором первого можно деактивировать
	testutils.CreateTestUser(t, ts.db, "admin2@extintores.local", models.RoleAdmin)
	w = ts.as(t, models.RoleAdmin, http.MethodPatch, path+"/desactivar", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, ts.db.First(&user, admin.ID).Error)
	assert.False(t, user.Active)
}

func TestDeleteUserWithReferencesConflict(t *testing.T) {
	ts := newTestServer(t)
	tech := ts.users[models.RoleTechnician]
	e := ts.extinguisher(t, testutils.Date(2025, 1, 1), nil)

	w := ts.as(t, models.RoleTechnician, http.MethodPost, "/api/mantenimientos", map[string]interface{}{
		"extintor_id": e.ID, "fecha": "2024-06-01", "tipo_evento": "inspeccion",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	path := "/api/usuarios/" + services.EntityID(tech.ID)
	w = ts.as(t, models.RoleAdmin, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decodeResponse(t, w).Error, "desactívelo")

	w = ts.as(t, models.RoleAdmin, http.MethodPatch, path+"/desactivar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.as(t, models.RoleAdmin, http.MethodPatch, path+"/activar", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var user models.User
	decodeData(t, w, &user)
	assert.True(t, user.Active)
}
