package api

import (
	"fmt"

	"backend_extintores/config"
	"backend_extintores/services"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dependencies собранные сервисы приложения
type Dependencies struct {
	Config *config.Config
	Logger *logrus.Logger
	DB     *gorm.DB
	Redis  *redis.Client

	Cache   *services.CacheService
	Images  *services.FileStore
	QRCodes *services.FileStore

	Audit         *services.AuditService
	Auth          *services.AuthService
	Users         *services.UserService
	Sites         *services.SiteService
	Locations     *services.LocationService
	Types         *services.ExtinguisherTypeService
	Extinguishers *services.ExtinguisherService
	Maintenance   *services.MaintenanceService
	Dashboard     *services.DashboardService
	Reports       *services.ReportService
	QR            *services.QRService
	Notifications *services.NotificationService
	Scheduler     *services.SchedulerService
	Seed          *services.SeedService
}

// NewDependencies создает все сервисы; redisClient может быть nil
func NewDependencies(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, logger *logrus.Logger) (*Dependencies, error) {
	images, err := services.NewFileStore(cfg.Storage.UploadDir, "/images", cfg.Security.MaxUploadSize, logger)
	if err != nil {
		return nil, fmt.Errorf("каталог изображений: %w", err)
	}
	qrCodes, err := services.NewFileStore(cfg.Storage.QRDir, "/qr-codes", cfg.Security.MaxUploadSize, logger)
	if err != nil {
		return nil, fmt.Errorf("каталог QR-кодов: %w", err)
	}

	d := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Redis:   redisClient,
		Cache:   services.NewCacheService(redisClient, logger),
		Images:  images,
		QRCodes: qrCodes,
	}

	d.Audit = services.NewAuditService(db, logger, cfg.Audit.BufferSize)
	d.Auth = services.NewAuthService(db, cfg.JWT, logger)
	d.Users = services.NewUserService(db, d.Auth, logger)
	d.Sites = services.NewSiteService(db, d.Cache, logger)
	d.Locations = services.NewLocationService(db, d.Cache, logger)
	d.Types = services.NewExtinguisherTypeService(db, d.Cache, logger)
	d.Extinguishers = services.NewExtinguisherService(db, d.Cache, images, qrCodes, logger)
	d.Maintenance = services.NewMaintenanceService(db, d.Cache, images, logger)
	d.Dashboard = services.NewDashboardService(db, d.Cache, cfg.Alerts.DashboardCacheTTL, logger)
	d.Reports = services.NewReportService(d.Extinguishers, logger)
	d.QR = services.NewQRService(d.Extinguishers, images, qrCodes, logger)
	d.Notifications = services.NewNotificationService(db, cfg.Alerts, logger)
	d.Scheduler = services.NewSchedulerService(db, d.Audit, d.Dashboard, d.Notifications, cfg.Audit, cfg.Alerts, logger)
	d.Seed = services.NewSeedService(db, d.Users, cfg.Seed, logger)

	return d, nil
}

// Close дописывает очередь аудита
func (d *Dependencies) Close() {
	d.Audit.Close()
}
