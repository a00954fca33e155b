package services

import (
	"errors"
	"strings"
	"testing"

	"backend_extintores/config"
	"backend_extintores/models"
	"backend_extintores/testutils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: 77}, nil
}

func upcomingItems(t *testing.T, env *testEnv) []models.ExtinguisherView {
	t.Helper()
	f := testutils.CreateFixture(t, env.db)
	in := newExtinguisherInput(f, testutils.Date(2024, 6, 20))
	in.InternalCode = Some("A<1>")
	_, err := env.extinguishers.Create(in)
	require.NoError(t, err)
	_, err = env.extinguishers.Create(newExtinguisherInput(f, testutils.Date(2025, 6, 20)))
	require.NoError(t, err)

	items, err := env.dashboard.Upcoming(30)
	require.NoError(t, err)
	require.Len(t, items, 1)
	return items
}

func TestSendExpiryAlertTelegram(t *testing.T) {
	env := newTestEnv(t)
	items := upcomingItems(t, env)
	sender := &fakeSender{}
	ns := NewNotificationServiceWithSender(env.db, sender, 12345, config.NewTestLogger())

	entry, err := ns.SendExpiryAlert(items, 30)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationChannelTelegram, entry.Channel)
	assert.Equal(t, models.NotificationStatusSent, entry.Status)
	assert.Equal(t, "77", entry.ExternalID)
	assert.Equal(t, "12345", entry.Recipient)
	assert.Equal(t, 1, entry.ItemCount)
	assert.NotNil(t, entry.SentAt)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(12345), sender.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, sender.sent[0].ParseMode)
	assert.Contains(t, sender.sent[0].Text, "A&lt;1&gt;")
	assert.Contains(t, sender.sent[0].Text, "en 5 días")
}

func TestSendExpiryAlertFailure(t *testing.T) {
	env := newTestEnv(t)
	ns := NewNotificationServiceWithSender(env.db, &fakeSender{err: errors.New("chat not found")}, 1, config.NewTestLogger())

	entry, err := ns.SendExpiryAlert(nil, 30)
	require.Error(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.NotificationStatusFailed, entry.Status)
	assert.Equal(t, "chat not found", entry.ErrorMessage)
	assert.Nil(t, entry.SentAt)

	logs, page, err := ns.GetNotificationLogs(models.NotificationStatusFailed, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Len(t, logs, 1)
}

func TestSendExpiryAlertLogOnly(t *testing.T) {
	env := newTestEnv(t)
	ns := NewNotificationService(env.db, config.AlertsConfig{}, config.NewTestLogger())
	assert.False(t, ns.TelegramEnabled())

	entry, err := ns.SendExpiryAlert(nil, 30)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationChannelLog, entry.Channel)
	assert.Equal(t, models.NotificationStatusSent, entry.Status)
	assert.Contains(t, entry.Message, "Sin vencimientos próximos")
}

func TestBuildExpiryAlertMessageTruncates(t *testing.T) {
	items := make([]models.ExtinguisherView, maxAlertLines+5)
	for i := range items {
		items[i].ID = uint(i + 1)
	}

	msg := BuildExpiryAlertMessage(items, 30)
	assert.Equal(t, maxAlertLines, strings.Count(msg, "•"))
	assert.Contains(t, msg, "… y 5 más")
}
