package api

import (
	"fmt"
	"net/http"
	"testing"

	"backend_extintores/models"
	"backend_extintores/services"
	"backend_extintores/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSitesCRUD(t *testing.T) {
	ts := newTestServer(t)

	w := ts.as(t, models.RoleAdmin, http.MethodPost, "/api/sedes", map[string]string{"nombre": "Planta Norte", "direccion": "Calle 5"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var site models.Site
	decodeData(t, w, &site)
	assert.Equal(t, "Planta Norte", site.Name)

	w = ts.as(t, models.RoleAdmin, http.MethodPost, "/api/sedes", map[string]string{"nombre": "Planta Norte"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.as(t, models.RoleAdmin, http.MethodPost, "/api/sedes", map[string]string{"direccion": "sin nombre"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeResponse(t, w).Fields, "nombre")

	path := "/api/sedes/" + services.EntityID(site.ID)
	w = ts.as(t, models.RoleAdmin, http.MethodPut, path, map[string]string{"direccion": "Calle 7"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &site)
	assert.Equal(t, "Planta Norte", site.Name)
	assert.Equal(t, "Calle 7", site.Address)

	var sites []services.SiteWithStats
	pagination := decodeList(t, ts.as(t, models.RoleViewer, http.MethodGet, "/api/sedes?search=norte", nil), &sites)
	require.Len(t, sites, 1)
	assert.Equal(t, int64(1), pagination.Total)
	assert.Equal(t, int64(0), sites[0].LocationCount)

	w = ts.as(t, models.RoleAdmin, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	ts.deps.Audit.Flush()
	assert.Equal(t, int64(1), auditCount(t, ts.db, models.ActionCreate, models.EntitySite))
	assert.Equal(t, int64(1), auditCount(t, ts.db, models.ActionEdit, models.EntitySite))
	assert.Equal(t, int64(1), auditCount(t, ts.db, models.ActionDelete, models.EntitySite))
}

func TestDeleteSiteWithLocationsConflict(t *testing.T) {
	ts := newTestServer(t)

	w := ts.as(t, models.RoleAdmin, http.MethodDelete, "/api/sedes/"+services.EntityID(ts.fixture.Site.ID), nil)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Contains(t, decodeResponse(t, w).Error, "ubicaciones")

	var count int64
	require.NoError(t, ts.db.Model(&models.Site{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLocationsFilterAndConflicts(t *testing.T) {
	ts := newTestServer(t)
	other := testutils.CreateTestSite(t, ts.db, "Almacén")
	testutils.CreateTestLocation(t, ts.db, other.ID, "Pasillo")

	var locations []models.Location
	decodeList(t, ts.as(t, models.RoleViewer, http.MethodGet, fmt.Sprintf("/api/ubicaciones?sede_id=%d", other.ID), nil), &locations)
	require.Len(t, locations, 1)
	assert.Equal(t, "Pasillo", locations[0].AreaName)

	// Одинаковое имя зоны допустимо в разных объектах, но не в одном
	w := ts.as(t, models.RoleAdmin, http.MethodPost, "/api/ubicaciones", map[string]interface{}{"nombre_area": "Pasillo", "sede_id": ts.fixture.Site.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = ts.as(t, models.RoleAdmin, http.MethodPost, "/api/ubicaciones", map[string]interface{}{"nombre_area": "Pasillo", "sede_id": other.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.as(t, models.RoleAdmin, http.MethodPost, "/api/ubicaciones", map[string]interface{}{"nombre_area": "Patio", "sede_id": 9999})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeResponse(t, w).Fields, "sede_id")

	ts.extinguisher(t, testutils.Date(2025, 1, 1), nil)
	w = ts.as(t, models.RoleAdmin, http.MethodDelete, "/api/ubicaciones/"+services.EntityID(ts.fixture.Location.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestExtinguisherTypes(t *testing.T) {
	ts := newTestServer(t)

	w := ts.as(t, models.RoleAdmin, http.MethodPost, "/api/tipos-extintores", map[string]interface{}{
		"id":           "co2",
		"nombre":       "Dióxido de carbono",
		"color_hex":    "#1F2937",
		"clases_fuego": []string{"b", "C"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.ExtinguisherType
	decodeData(t, w, &created)
	assert.Equal(t, "CO2", created.ID)
	assert.Equal(t, []string{"B", "C"}, []string(created.FireClasses))

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"color inválido", map[string]interface{}{"id": "H2O", "nombre": "Agua", "color_hex": "rojo"}, "color_hex"},
		{"clase inválida", map[string]interface{}{"id": "H2O", "nombre": "Agua", "clases_fuego": []string{"Z"}}, "clases_fuego[0]"},
		{"código inválido", map[string]interface{}{"id": "AGUA PRESURIZADA", "nombre": "Agua"}, "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.as(t, models.RoleAdmin, http.MethodPost, "/api/tipos-extintores", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, decodeResponse(t, w).Fields, tt.field)
		})
	}

	w = ts.as(t, models.RoleViewer, http.MethodGet, "/api/tipos-extintores/co2", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	ts.extinguisher(t, testutils.Date(2025, 1, 1), nil)
	w = ts.as(t, models.RoleAdmin, http.MethodDelete, "/api/tipos-extintores/PQS", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.as(t, models.RoleAdmin, http.MethodDelete, "/api/tipos-extintores/CO2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
