package services

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"backend_extintores/config"
	"backend_extintores/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NotificationTypeExpiryAlert оповещение о близком истечении срока
const NotificationTypeExpiryAlert = "expiry_alert"

const maxAlertLines = 50

// TelegramSender часть Bot API, нужная для отправки сообщений
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NotificationService отправляет оповещения в Telegram и ведет журнал отправок.
// Без настроенного бота оповещение только пишется в лог
type NotificationService struct {
	db     *gorm.DB
	bot    TelegramSender
	chatID int64
	logger *logrus.Logger

	Now func() time.Time
}

// NewNotificationService создает сервис; ошибка авторизации бота не фатальна
func NewNotificationService(db *gorm.DB, cfg config.AlertsConfig, logger *logrus.Logger) *NotificationService {
	s := &NotificationService{db: db, logger: logger, Now: time.Now}
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
		return s
	}

	chatID, err := strconv.ParseInt(cfg.TelegramChatID, 10, 64)
	if err != nil {
		logger.WithField("chat_id", cfg.TelegramChatID).Warn("Неверный TELEGRAM_CHAT_ID, оповещения только в лог")
		return s
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.WithError(err).Warn("Ошибка создания Telegram бота, оповещения только в лог")
		return s
	}
	bot.Debug = false
	logger.WithField("bot", bot.Self.UserName).Info("✅ Telegram бот авторизован")

	s.bot = bot
	s.chatID = chatID
	return s
}

// NewNotificationServiceWithSender создает сервис с заданным отправителем
func NewNotificationServiceWithSender(db *gorm.DB, sender TelegramSender, chatID int64, logger *logrus.Logger) *NotificationService {
	return &NotificationService{db: db, bot: sender, chatID: chatID, logger: logger, Now: time.Now}
}

// TelegramEnabled настроена ли отправка в Telegram
func (s *NotificationService) TelegramEnabled() bool {
	return s.bot != nil
}

// SendExpiryAlert отправляет список огнетушителей с близким сроком и пишет запись в журнал
func (s *NotificationService) SendExpiryAlert(items []models.ExtinguisherView, horizonDays int) (*models.NotificationLog, error) {
	message := BuildExpiryAlertMessage(items, horizonDays)

	entry := &models.NotificationLog{
		Type:      NotificationTypeExpiryAlert,
		Channel:   models.NotificationChannelLog,
		Message:   message,
		Status:    models.NotificationStatusSent,
		ItemCount: len(items),
	}

	if s.bot == nil {
		s.logger.WithFields(logrus.Fields{
			"items":        len(items),
			"horizon_days": horizonDays,
		}).Info("Оповещение о сроках (Telegram не настроен)")
	} else {
		entry.Channel = models.NotificationChannelTelegram
		entry.Recipient = strconv.FormatInt(s.chatID, 10)

		msg := tgbotapi.NewMessage(s.chatID, message)
		msg.ParseMode = tgbotapi.ModeHTML
		sent, err := s.bot.Send(msg)
		if err != nil {
			entry.Status = models.NotificationStatusFailed
			entry.ErrorMessage = err.Error()
			s.logger.WithError(err).Warn("Ошибка отправки оповещения в Telegram")
		} else {
			entry.ExternalID = strconv.Itoa(sent.MessageID)
		}
	}

	if entry.Status == models.NotificationStatusSent {
		sentAt := s.Now().UTC()
		entry.SentAt = &sentAt
	}

	if err := s.db.Create(entry).Error; err != nil {
		return nil, NewInternalError(err)
	}
	if entry.Status == models.NotificationStatusFailed {
		return entry, fmt.Errorf("telegram: %s", entry.ErrorMessage)
	}
	return entry, nil
}

// GetNotificationLogs возвращает журнал отправок, новые сначала
func (s *NotificationService) GetNotificationLogs(status string, page, limit int) ([]models.NotificationLog, models.Pagination, error) {
	query := s.db.Model(&models.NotificationLog{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}

	page, limit = models.NormalizePage(page, limit)

	var logs []models.NotificationLog
	if err := query.Order("created_at DESC").Order("id DESC").
		Offset(models.Offset(page, limit)).Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, models.Pagination{}, NewInternalError(err)
	}
	return logs, models.NewPagination(page, limit, total), nil
}

// BuildExpiryAlertMessage текст оповещения в HTML-разметке Telegram
func BuildExpiryAlertMessage(items []models.ExtinguisherView, horizonDays int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Extintores por vencer en los próximos %d días: %d</b>\n", horizonDays, len(items))
	if len(items) == 0 {
		b.WriteString("Sin vencimientos próximos.")
		return b.String()
	}

	for i, item := range items {
		if i == maxAlertLines {
			fmt.Fprintf(&b, "… y %d más", len(items)-maxAlertLines)
			break
		}

		label := "#" + EntityID(item.ID)
		if item.InternalCode != nil {
			label = *item.InternalCode
		}
		place := ""
		if item.Location != nil {
			place = item.Location.AreaName
			if item.Location.Site != nil {
				place = item.Location.Site.Name + " / " + place
			}
		}
		fmt.Fprintf(&b, "• %s (%s) vence %s, en %d días\n",
			html.EscapeString(label),
			html.EscapeString(place),
			item.ExpirationDate.Format("2006-01-02"),
			item.DaysUntilExpiration,
		)
	}
	return b.String()
}
