package services

import (
	"fmt"

	"backend_extintores/config"
	"backend_extintores/database"
	"backend_extintores/models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SchedulerService фоновые задачи по расписанию: очистка аудита и оповещения о сроках
type SchedulerService struct {
	db            *gorm.DB
	audit         *AuditService
	dashboard     *DashboardService
	notifications *NotificationService
	auditCfg      config.AuditConfig
	alertsCfg     config.AlertsConfig
	cron          *cron.Cron
	logger        *logrus.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService
func NewSchedulerService(db *gorm.DB, audit *AuditService, dashboard *DashboardService, notifications *NotificationService,
	auditCfg config.AuditConfig, alertsCfg config.AlertsConfig, logger *logrus.Logger) *SchedulerService {
	return &SchedulerService{
		db:            db,
		audit:         audit,
		dashboard:     dashboard,
		notifications: notifications,
		auditCfg:      auditCfg,
		alertsCfg:     alertsCfg,
		cron:          cron.New(cron.WithSeconds()),
		logger:        logger,
	}
}

// Start регистрирует задачи и запускает планировщик
func (ss *SchedulerService) Start() error {
	if ss.auditCfg.PurgeCron != "" {
		if _, err := ss.cron.AddFunc(ss.auditCfg.PurgeCron, ss.RunMaintenance); err != nil {
			return fmt.Errorf("неверное расписание AUDIT_PURGE_CRON %q: %w", ss.auditCfg.PurgeCron, err)
		}
	}
	if ss.alertsCfg.ExpiryCron != "" {
		if _, err := ss.cron.AddFunc(ss.alertsCfg.ExpiryCron, ss.runExpiryAlertJob); err != nil {
			return fmt.Errorf("неверное расписание EXPIRY_ALERT_CRON %q: %w", ss.alertsCfg.ExpiryCron, err)
		}
	}

	ss.cron.Start()
	ss.logger.WithField("jobs", len(ss.cron.Entries())).Info("Планировщик запущен")
	return nil
}

// Stop останавливает планировщик и ждет завершения выполняющихся задач
func (ss *SchedulerService) Stop() {
	<-ss.cron.Stop().Done()
	ss.logger.Info("Планировщик остановлен")
}

// RunMaintenance удаляет старые записи аудита и обновляет статистику БД
func (ss *SchedulerService) RunMaintenance() {
	deleted, err := ss.audit.CleanupOldLogs(ss.auditCfg.RetentionDays)
	if err != nil {
		ss.logger.WithError(err).Error("Ошибка очистки журнала аудита")
	} else if deleted > 0 {
		ss.logger.WithField("deleted", deleted).Info("Журнал аудита очищен")
	}

	if err := database.OptimizeDatabase(ss.db); err != nil {
		ss.logger.WithError(err).Warn("Ошибка оптимизации БД")
	}
}

// RunExpiryAlert отправляет оповещение об огнетушителях с истекающим сроком
func (ss *SchedulerService) RunExpiryAlert() (*models.NotificationLog, error) {
	horizon := ss.alertsCfg.HorizonDays
	if horizon <= 0 {
		horizon = 30
	}

	items, err := ss.dashboard.Upcoming(horizon)
	if err != nil {
		return nil, err
	}
	return ss.notifications.SendExpiryAlert(items, horizon)
}

func (ss *SchedulerService) runExpiryAlertJob() {
	entry, err := ss.RunExpiryAlert()
	if err != nil {
		ss.logger.WithError(err).Error("Ошибка оповещения о сроках")
		return
	}
	ss.logger.WithFields(logrus.Fields{
		"items":   entry.ItemCount,
		"channel": entry.Channel,
	}).Info("Оповещение о сроках отправлено")
}
