package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"backend_extintores/config"
	"backend_extintores/testutils"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// fixedToday дата, от которой считаются сроки во всех тестах сервисов
var fixedToday = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func fixedNow() time.Time {
	return fixedToday.Add(10 * time.Hour)
}

type testEnv struct {
	db            *gorm.DB
	cache         *CacheService
	images        *FileStore
	qrCodes       *FileStore
	audit         *AuditService
	auth          *AuthService
	users         *UserService
	sites         *SiteService
	locations     *LocationService
	types         *ExtinguisherTypeService
	extinguishers *ExtinguisherService
	maintenance   *MaintenanceService
	dashboard     *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutils.SetupTestDB(t)
	logger := config.NewTestLogger()
	dir := t.TempDir()

	images, err := NewFileStore(filepath.Join(dir, "images"), "/images", MaxImageSize, logger)
	require.NoError(t, err)
	qrCodes, err := NewFileStore(filepath.Join(dir, "qr"), "/qr-codes", MaxImageSize, logger)
	require.NoError(t, err)

	cache := NewCacheService(nil, logger)
	audit := NewAuditService(db, logger, 32)
	t.Cleanup(audit.Close)

	auth := NewAuthService(db, config.JWTConfig{Secret: testutils.TestJWTSecret, ExpiresIn: 24 * time.Hour, Issuer: "test"}, logger)
	auth.BcryptCost = bcrypt.MinCost

	env := &testEnv{
		db:            db,
		cache:         cache,
		images:        images,
		qrCodes:       qrCodes,
		audit:         audit,
		auth:          auth,
		users:         NewUserService(db, auth, logger),
		sites:         NewSiteService(db, cache, logger),
		locations:     NewLocationService(db, cache, logger),
		types:         NewExtinguisherTypeService(db, cache, logger),
		extinguishers: NewExtinguisherService(db, cache, images, qrCodes, logger),
		maintenance:   NewMaintenanceService(db, cache, images, logger),
		dashboard:     NewDashboardService(db, cache, time.Minute, logger),
	}
	env.extinguishers.Now = fixedNow
	env.maintenance.Now = fixedNow
	env.dashboard.Now = fixedNow
	return env
}

// pngBytes минимальное PNG-изображение
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngUpload(t *testing.T) *Upload {
	data := pngBytes(t)
	return &Upload{Filename: "foto.png", Size: int64(len(data)), Reader: bytes.NewReader(data)}
}

func ptr[T any](v T) *T {
	return &v
}

func bytesReader(data []byte) *bytes.Reader {
	return bytes.NewReader(data)
}
