package models

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB создает тестовую базу SQLite с включенными внешними ключами
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := filepath.Join(t.TempDir(), "models.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&User{}, &Site{}, &Location{}, &ExtinguisherType{}, &Extinguisher{}, &MaintenanceEvent{}, &AuditLog{})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestUserTableName(t *testing.T) {
	assert.Equal(t, "usuarios", User{}.TableName())
}

func TestUserInactiveIsPersisted(t *testing.T) {
	db := setupTestDB(t)

	user := &User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: RoleViewer, Active: false}
	require.NoError(t, db.Create(user).Error)

	var loaded User
	require.NoError(t, db.First(&loaded, user.ID).Error)
	assert.False(t, loaded.Active)
	assert.False(t, loaded.IsAdmin())
}

func TestUserEmailUnique(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Create(&User{Name: "A", Email: "dup@example.com", PasswordHash: "x", Role: RoleAdmin, Active: true}).Error)
	err := db.Create(&User{Name: "B", Email: "dup@example.com", PasswordHash: "x", Role: RoleViewer, Active: true}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole("admin"))
	assert.True(t, ValidRole("tecnico"))
	assert.True(t, ValidRole("consulta"))
	assert.False(t, ValidRole("root"))
}

func TestSchemaConstraints(t *testing.T) {
	db := setupTestDB(t)

	site := &Site{Name: "HQ", Address: "Calle 1"}
	require.NoError(t, db.Create(site).Error)
	loc := &Location{AreaName: "Lobby", SiteID: site.ID}
	require.NoError(t, db.Create(loc).Error)
	typ := &ExtinguisherType{ID: "ABC", Name: "Polvo ABC", FireClasses: []string{"A", "B", "C"}}
	require.NoError(t, db.Create(typ).Error)

	t.Run("area name unique within site", func(t *testing.T) {
		err := db.Create(&Location{AreaName: "Lobby", SiteID: site.ID}).Error
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

		other := &Site{Name: "Planta 2"}
		require.NoError(t, db.Create(other).Error)
		assert.NoError(t, db.Create(&Location{AreaName: "Lobby", SiteID: other.ID}).Error)
	})

	t.Run("null internal codes are not duplicates", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			ext := &Extinguisher{TypeID: "ABC", LocationID: loc.ID, ExpirationDate: time.Now().UTC(), Status: StatusActive}
			require.NoError(t, db.Create(ext).Error)
		}
		code := "EXT-001"
		require.NoError(t, db.Create(&Extinguisher{InternalCode: &code, TypeID: "ABC", LocationID: loc.ID, ExpirationDate: time.Now().UTC(), Status: StatusActive}).Error)
		err := db.Create(&Extinguisher{InternalCode: &code, TypeID: "ABC", LocationID: loc.ID, ExpirationDate: time.Now().UTC(), Status: StatusActive}).Error
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})

	t.Run("site with locations cannot be deleted", func(t *testing.T) {
		// SQLite сообщает RESTRICT как ограничение триггера, без gorm.ErrForeignKeyViolated
		err := db.Delete(&Site{}, site.ID).Error
		require.Error(t, err)
		assert.Contains(t, strings.ToUpper(err.Error()), "FOREIGN KEY")

		var count int64
		require.NoError(t, db.Model(&Site{}).Where("id = ?", site.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("maintenance events cascade", func(t *testing.T) {
		ext := &Extinguisher{TypeID: "ABC", LocationID: loc.ID, ExpirationDate: time.Now().UTC(), Status: StatusActive}
		require.NoError(t, db.Create(ext).Error)
		require.NoError(t, db.Create(&MaintenanceEvent{ExtinguisherID: ext.ID, Date: time.Now().UTC(), EventType: EventInspection}).Error)

		require.NoError(t, db.Delete(&Extinguisher{}, ext.ID).Error)

		var count int64
		db.Model(&MaintenanceEvent{}).Where("extintor_id = ?", ext.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("fire classes round trip", func(t *testing.T) {
		var loaded ExtinguisherType
		require.NoError(t, db.First(&loaded, "id = ?", "ABC").Error)
		assert.Equal(t, []string{"A", "B", "C"}, []string(loaded.FireClasses))
	})
}
