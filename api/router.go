package api

import (
	"net/http"
	"time"

	"backend_extintores/middleware"
	"backend_extintores/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const qrScanRatePerMinute = 30

// NewRouter собирает gin.Engine со всеми маршрутами API
func NewRouter(d *Dependencies) *gin.Engine {
	cfg := d.Config
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.App.Env == "test" {
		gin.SetMode(gin.TestMode)
	}
	RegisterValidators()

	r := gin.New()
	r.MaxMultipartMemory = cfg.Security.MaxUploadSize
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(cors.New(corsConfig(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders,
		cfg.CORS.AllowCredentials, cfg.CORS.MaxAge)))

	r.Static("/images", d.Images.Dir())
	r.Static("/qr-codes", d.QRCodes.Dir())

	base := newHandlerBase(d.Audit, d.Logger, cfg.IsDevelopment())
	authMW := middleware.NewAuthMiddleware(d.Auth, d.Logger)
	writers := authMW.RequireRoles(models.RoleAdmin, models.RoleTechnician)
	admin := authMW.RequireAdmin()

	system := NewSystemAPI(base, d.DB, d.Cache, cfg.Storage.BackupDir, cfg.App.Version)
	r.GET("/health", system.Health)

	apiGroup := r.Group("/api")

	authAPI := NewAuthAPI(base, d.Auth, d.Logger)
	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/login",
			middleware.LoginRateLimit(d.Redis, cfg.Security.LoginRateLimitRequests, cfg.Security.LoginRateLimitWindow, d.Logger),
			authAPI.Login)
		authGroup.POST("/logout", authMW.RequireAuth(), authAPI.Logout)
		authGroup.GET("/me", authMW.RequireAuth(), authAPI.Me)
		authGroup.PUT("/password", authMW.RequireAuth(), authAPI.ChangePassword)
	}

	protected := apiGroup.Group("")
	protected.Use(authMW.RequireAuth())

	extinguishers := NewExtinguisherAPI(base, d.Extinguishers)
	maintenance := NewMaintenanceAPI(base, d.Maintenance)
	extGroup := protected.Group("/extintores")
	{
		extGroup.GET("", extinguishers.GetExtinguishers)
		extGroup.GET("/:id", extinguishers.GetExtinguisher)
		extGroup.GET("/:id/mantenimientos", maintenance.GetExtinguisherHistory)
		extGroup.POST("", writers, extinguishers.CreateExtinguisher)
		extGroup.PUT("/:id", writers, extinguishers.UpdateExtinguisher)
		extGroup.DELETE("/:id", admin, extinguishers.DeleteExtinguisher)
	}

	maintGroup := protected.Group("/mantenimientos")
	{
		maintGroup.GET("", maintenance.GetMaintenanceEvents)
		maintGroup.GET("/:id", maintenance.GetMaintenanceEvent)
		maintGroup.POST("", writers, maintenance.CreateMaintenanceEvent)
		maintGroup.DELETE("/:id", admin, maintenance.DeleteMaintenanceEvent)
	}

	dashboard := NewDashboardAPI(base, d.Dashboard)
	protected.GET("/dashboard/stats", dashboard.GetStats)

	sites := NewSiteAPI(base, d.Sites)
	siteGroup := protected.Group("/sedes")
	{
		siteGroup.GET("", sites.GetSites)
		siteGroup.GET("/:id", sites.GetSite)
		siteGroup.POST("", admin, sites.CreateSite)
		siteGroup.PUT("/:id", admin, sites.UpdateSite)
		siteGroup.DELETE("/:id", admin, sites.DeleteSite)
	}

	locations := NewLocationAPI(base, d.Locations)
	locGroup := protected.Group("/ubicaciones")
	{
		locGroup.GET("", locations.GetLocations)
		locGroup.GET("/:id", locations.GetLocation)
		locGroup.POST("", admin, locations.CreateLocation)
		locGroup.PUT("/:id", admin, locations.UpdateLocation)
		locGroup.DELETE("/:id", admin, locations.DeleteLocation)
	}

	types := NewExtinguisherTypeAPI(base, d.Types)
	typeGroup := protected.Group("/tipos-extintores")
	{
		typeGroup.GET("", types.GetTypes)
		typeGroup.GET("/:id", types.GetType)
		typeGroup.POST("", admin, types.CreateType)
		typeGroup.PUT("/:id", admin, types.UpdateType)
		typeGroup.DELETE("/:id", admin, types.DeleteType)
	}

	users := NewUserAPI(base, d.Users)
	userGroup := protected.Group("/usuarios", admin)
	{
		userGroup.GET("", users.GetUsers)
		userGroup.GET("/:id", users.GetUser)
		userGroup.POST("", users.CreateUser)
		userGroup.PUT("/:id", users.UpdateUser)
		userGroup.PATCH("/:id/activar", users.ActivateUser)
		userGroup.PATCH("/:id/desactivar", users.DeactivateUser)
		userGroup.DELETE("/:id", users.DeleteUser)
	}

	audit := NewAuditAPI(base, d.Audit)
	auditGroup := protected.Group("/auditoria", admin)
	{
		auditGroup.GET("", audit.GetAuditLogs)
		auditGroup.GET("/stats", audit.GetAuditStats)
		auditGroup.GET("/export", audit.ExportAuditLogs)
	}

	reports := NewReportsAPI(base, d.Reports)
	protected.GET("/reportes/extintores", writers, reports.ExportExtinguishers)

	qr := NewQRAPI(base, d.QR)
	qrGroup := protected.Group("/qr")
	{
		qrGroup.POST("/scan", middleware.RateLimit(d.Redis, middleware.RateLimitConfig{
			Requests:     qrScanRatePerMinute,
			Window:       time.Minute,
			Prefix:       "rate_limit:qr:",
			KeyGenerator: middleware.UserKeyGenerator,
		}, d.Logger), qr.Scan)
		qrGroup.GET("/generate/:id", qr.Generate)
	}

	notifications := NewNotificationAPI(base, d.Notifications, d.Scheduler)
	notifGroup := protected.Group("/notificaciones", admin)
	{
		notifGroup.GET("", notifications.GetNotificationLogs)
		notifGroup.POST("/vencimientos", notifications.SendExpiryAlert)
	}

	protected.POST("/sistema/backup", admin, system.Backup)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "Ruta no encontrada", Timestamp: timestamp()})
	})

	return r
}

// corsConfig настройки CORS из конфигурации; "*" разрешает все источники
func corsConfig(origins, methods, headers []string, credentials bool, maxAge int) cors.Config {
	c := cors.Config{
		AllowMethods:     methods,
		AllowHeaders:     headers,
		ExposeHeaders:    []string{"Content-Disposition", "X-Total-Count", "X-Request-ID"},
		AllowCredentials: credentials,
		MaxAge:           time.Duration(maxAge) * time.Second,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		c.AllowAllOrigins = true
		// gin-contrib/cors не допускает "*" вместе с credentials
		c.AllowCredentials = false
		return c
	}
	c.AllowOrigins = origins
	return c
}
