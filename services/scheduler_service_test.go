package services

import (
	"testing"
	"time"

	"backend_extintores/config"
	"backend_extintores/models"
	"backend_extintores/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduler(env *testEnv, notifications *NotificationService, auditCfg config.AuditConfig, alertsCfg config.AlertsConfig) *SchedulerService {
	return NewSchedulerService(env.db, env.audit, env.dashboard, notifications, auditCfg, alertsCfg, config.NewTestLogger())
}

func TestSchedulerRunExpiryAlert(t *testing.T) {
	env := newTestEnv(t)
	upcomingItems(t, env)
	sender := &fakeSender{}
	ns := NewNotificationServiceWithSender(env.db, sender, 1, config.NewTestLogger())

	ss := newScheduler(env, ns, config.AuditConfig{}, config.AlertsConfig{HorizonDays: 0})
	entry, err := ss.RunExpiryAlert()
	require.NoError(t, err)
	assert.Equal(t, 1, entry.ItemCount)
	assert.Len(t, sender.sent, 1)
}

func TestSchedulerRunMaintenance(t *testing.T) {
	env := newTestEnv(t)
	user := testutils.CreateTestUser(t, env.db, "admin@example.com", models.RoleAdmin)
	old := models.AuditLog{UserID: &user.ID, Action: models.ActionLogin, EntityType: models.EntityUser, CreatedAt: time.Now().AddDate(0, 0, -400)}
	fresh := models.AuditLog{UserID: &user.ID, Action: models.ActionLogin, EntityType: models.EntityUser, CreatedAt: time.Now()}
	require.NoError(t, env.db.Create(&old).Error)
	require.NoError(t, env.db.Create(&fresh).Error)

	ss := newScheduler(env, NewNotificationService(env.db, config.AlertsConfig{}, config.NewTestLogger()),
		config.AuditConfig{RetentionDays: 365}, config.AlertsConfig{})
	ss.RunMaintenance()

	var count int64
	env.db.Model(&models.AuditLog{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSchedulerStartRejectsBadCron(t *testing.T) {
	env := newTestEnv(t)
	ns := NewNotificationService(env.db, config.AlertsConfig{}, config.NewTestLogger())

	ss := newScheduler(env, ns, config.AuditConfig{PurgeCron: "nunca"}, config.AlertsConfig{})
	assert.Error(t, ss.Start())

	ss = newScheduler(env, ns, config.AuditConfig{PurgeCron: "0 30 3 * * *"}, config.AlertsConfig{ExpiryCron: "0 0 8 * * *"})
	require.NoError(t, ss.Start())
	ss.Stop()
}
