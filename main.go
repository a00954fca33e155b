package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend_extintores/api"
	"backend_extintores/config"
	"backend_extintores/database"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("❌ Ошибка загрузки конфигурации: ", err)
	}
	cfg.LogConfig()

	logger := config.NewLogger(cfg.Logging)

	logger.Info("🔧 Инициализация базы данных...")
	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("❌ Ошибка подключения к базе данных")
	}

	redisClient, err := database.NewRedisClient(context.Background(), cfg, logger)
	if err != nil {
		// Без Redis работаем на кэше в памяти
		logger.WithError(err).Warn("⚠️  Redis недоступен, используется кэш в памяти")
		redisClient = nil
	}

	deps, err := api.NewDependencies(cfg, db, redisClient, logger)
	if err != nil {
		logger.WithError(err).Fatal("❌ Ошибка инициализации сервисов")
	}

	if err := deps.Seed.Run(); err != nil {
		logger.WithError(err).Fatal("❌ Ошибка загрузки начальных данных")
	}

	if err := deps.Scheduler.Start(); err != nil {
		logger.WithError(err).Fatal("❌ Ошибка запуска планировщика")
	}

	router := api.NewRouter(deps)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.App.Host, cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Security.RequestTimeout,
		WriteTimeout: cfg.Security.ResponseTimeout,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("🚀 Сервер запущен")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("❌ Ошибка HTTP сервера")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Получен сигнал остановки, завершаем работу...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Ошибка остановки HTTP сервера")
	}

	deps.Scheduler.Stop()
	deps.Close()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.WithError(err).Warn("Ошибка закрытия Redis")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.WithError(err).Warn("Ошибка закрытия базы данных")
		}
	}

	logger.WithFields(logrus.Fields{"version": cfg.App.Version}).Info("✅ Сервер остановлен")
}
