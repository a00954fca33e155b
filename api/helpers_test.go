package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"backend_extintores/config"
	"backend_extintores/models"
	"backend_extintores/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixedToday дата, от которой считаются сроки в тестах API
var fixedToday = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func fixedNow() time.Time {
	return fixedToday.Add(10 * time.Hour)
}

type testServer struct {
	router  *gin.Engine
	deps    *Dependencies
	db      *gorm.DB
	fixture *testutils.Fixture
	users   map[models.Role]*models.User
	tokens  map[models.Role]string
}

type testResponse struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"errors"`
}

type testList struct {
	Items      json.RawMessage   `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testutils.SetupTestConfig(t)
	db := testutils.SetupTestDB(t)

	deps, err := NewDependencies(cfg, db, nil, config.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(deps.Close)

	deps.Extinguishers.Now = fixedNow
	deps.Maintenance.Now = fixedNow
	deps.Dashboard.Now = fixedNow

	ts := &testServer{
		router:  NewRouter(deps),
		deps:    deps,
		db:      db,
		fixture: testutils.CreateFixture(t, db),
		users:   map[models.Role]*models.User{},
		tokens:  map[models.Role]string{},
	}

	for _, role := range []models.Role{models.RoleAdmin, models.RoleTechnician, models.RoleViewer} {
		user := testutils.CreateTestUser(t, db, string(role)+"@extintores.local", role)
		token, err := deps.Auth.GenerateToken(user)
		require.NoError(t, err)
		ts.users[role] = user
		ts.tokens[role] = token
	}
	return ts
}

// do выполняет JSON-запрос; token пустой означает запрос без авторизации
func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) as(t *testing.T, role models.Role, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, method, path, ts.tokens[role], body)
}

// multipart выполняет запрос multipart/form-data с одним файлом
func (ts *testServer) multipart(t *testing.T, role models.Role, method, path string, fields map[string]string, fileField, fileName string, file []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.tokens[role])

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) extinguisher(t *testing.T, expiration time.Time, lastMaintenance *time.Time) *models.Extinguisher {
	t.Helper()
	return testutils.CreateTestExtinguisher(t, ts.db, ts.fixture, expiration, lastMaintenance)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) testResponse {
	t.Helper()
	var resp testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	resp := decodeResponse(t, w)
	require.True(t, resp.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, dest))
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder, items interface{}) models.Pagination {
	t.Helper()
	var list testList
	decodeData(t, w, &list)
	require.NoError(t, json.Unmarshal(list.Items, items))
	return list.Pagination
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 220, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func auditCount(t *testing.T, db *gorm.DB, action models.AuditAction, entity models.AuditEntity) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("accion = ? AND tipo_entidad = ?", action, entity).
		Count(&count).Error)
	return count
}
