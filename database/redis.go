package database

import (
	"context"
	"fmt"

	"backend_extintores/config"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// NewRedisClient инициализирует подключение к Redis; nil, если Redis выключен в конфигурации
func NewRedisClient(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		log.Info("Redis выключен, используется кэш в памяти")
		return nil, nil
	}

	// Создаем клиент Redis
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.MaxConns,
		MinIdleConns: 2,
		DialTimeout:  cfg.Redis.Timeout,
		ReadTimeout:  cfg.Redis.Timeout,
		WriteTimeout: cfg.Redis.Timeout,
	})

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	log.WithField("addr", cfg.GetRedisAddr()).Info("✅ Успешно подключено к Redis")
	return client, nil
}
