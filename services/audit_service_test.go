package services

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"backend_extintores/models"
	"backend_extintores/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRecordAndFilter(t *testing.T) {
	env := newTestEnv(t)
	admin := testutils.CreateTestUser(t, env.db, "admin@example.com", models.RoleAdmin)

	env.audit.Record(AuditEntry{
		UserID:      &admin.ID,
		Action:      models.ActionCreate,
		EntityType:  models.EntityExtinguisher,
		EntityID:    "7",
		Description: "Extintor creado",
		IP:          "10.0.0.1",
		Details:     map[string]interface{}{"codigo_interno": "EXT-7"},
	})
	env.audit.Record(AuditEntry{Action: models.ActionLogin, EntityType: models.EntityUser, IP: "10.0.0.2"})
	env.audit.Flush()

	logs, pagination, err := env.audit.GetAuditLogs(AuditFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), pagination.Total)

	logs, _, err = env.audit.GetAuditLogs(AuditFilters{Action: string(models.ActionCreate)})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "7", *logs[0].EntityID)
	require.NotNil(t, logs[0].User)
	assert.Equal(t, admin.ID, logs[0].User.ID)

	var details map[string]string
	require.NoError(t, json.Unmarshal(logs[0].Details, &details))
	assert.Equal(t, "EXT-7", details["codigo_interno"])

	_, pagination, err = env.audit.GetAuditLogs(AuditFilters{IPAddress: "10.0.0.2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), pagination.Total)

	exported, err := env.audit.ExportAuditLogs(AuditFilters{})
	require.NoError(t, err)
	var all []models.AuditLog
	require.NoError(t, json.Unmarshal(exported, &all))
	assert.Len(t, all, 2)

	stats, err := env.audit.GetAuditStats("day")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalLogs)
	assert.Equal(t, int64(1), stats.TopActions["login"])
}

func TestAuditUserDeletionKeepsEntries(t *testing.T) {
	env := newTestEnv(t)
	testutils.CreateTestUser(t, env.db, "admin@example.com", models.RoleAdmin)
	viewer := testutils.CreateTestUser(t, env.db, "ver@example.com", models.RoleViewer)

	env.audit.Record(AuditEntry{UserID: &viewer.ID, Action: models.ActionLogin, EntityType: models.EntityUser})
	env.audit.Flush()

	_, err := env.users.Delete(viewer.ID)
	require.NoError(t, err)

	logs, _, err := env.audit.GetAuditLogs(AuditFilters{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].UserID)
}

func TestAuditCleanupOldLogs(t *testing.T) {
	env := newTestEnv(t)

	old := time.Now().UTC().AddDate(0, 0, -400)
	require.NoError(t, env.db.Create(&models.AuditLog{Action: models.ActionLogin, EntityType: models.EntityUser, CreatedAt: old}).Error)
	env.audit.Record(AuditEntry{Action: models.ActionLogout, EntityType: models.EntityUser})
	env.audit.Flush()

	deleted, err := env.audit.CleanupOldLogs(365)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = env.audit.CleanupOldLogs(0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestAuditRecordAfterClose(t *testing.T) {
	env := newTestEnv(t)
	env.audit.Close()

	// Не паникует и ничего не пишет
	env.audit.Record(AuditEntry{Action: models.ActionLogin, EntityType: models.EntityUser})

	var count int64
	env.db.Model(&models.AuditLog{}).Count(&count)
	assert.Zero(t, count)
}

func TestAuditFlushConcurrentWithRecord(t *testing.T) {
	env := newTestEnv(t)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 8; i++ {
				env.audit.Record(AuditEntry{Action: models.ActionLogin, EntityType: models.EntityUser})
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 8; i++ {
				env.audit.Flush()
			}
		}()
	}
	wg.Wait()
	env.audit.Flush()

	var count int64
	require.NoError(t, env.db.Model(&models.AuditLog{}).Count(&count).Error)
	assert.Equal(t, int64(32), count)
}
