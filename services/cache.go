package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Константы для TTL кэша
const (
	CacheTTLShort  = 5 * time.Minute  // Для часто изменяемых данных
	CacheTTLMedium = 15 * time.Minute // Для умеренно изменяемых данных
)

// CacheService кэш поверх Redis; без Redis работает в памяти процесса
type CacheService struct {
	redis  *redis.Client
	memory *gocache.Cache
	logger *logrus.Logger
}

// NewCacheService создает новый экземпляр CacheService
func NewCacheService(redisClient *redis.Client, logger *logrus.Logger) *CacheService {
	cs := &CacheService{redis: redisClient, logger: logger}
	if redisClient == nil {
		cs.memory = gocache.New(CacheTTLShort, 10*time.Minute)
	}
	return cs
}

// Backend имя используемого хранилища
func (cs *CacheService) Backend() string {
	if cs.redis != nil {
		return "redis"
	}
	return "memory"
}

// GetJSON читает значение и декодирует его в dest; false, если ключа нет
func (cs *CacheService) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	var raw []byte

	if cs.redis != nil {
		val, err := cs.redis.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		raw = val
	} else {
		val, found := cs.memory.Get(key)
		if !found {
			return false, nil
		}
		raw = val.([]byte)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON сохраняет значение в кэш в виде JSON
func (cs *CacheService) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if cs.redis != nil {
		return cs.redis.Set(ctx, key, raw, ttl).Err()
	}
	cs.memory.Set(key, raw, ttl)
	return nil
}

// Del удаляет значения из кэша
func (cs *CacheService) Del(ctx context.Context, keys ...string) error {
	if cs.redis != nil {
		return cs.redis.Del(ctx, keys...).Err()
	}
	for _, key := range keys {
		cs.memory.Delete(key)
	}
	return nil
}

// InvalidatePrefix удаляет все ключи с указанным префиксом
func (cs *CacheService) InvalidatePrefix(ctx context.Context, prefix string) {
	if cs.redis != nil {
		iter := cs.redis.Scan(ctx, 0, prefix+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			cs.logger.WithError(err).WithField("prefix", prefix).Warn("Ошибка сканирования ключей кэша")
			return
		}
		if len(keys) > 0 {
			if err := cs.redis.Del(ctx, keys...).Err(); err != nil {
				cs.logger.WithError(err).WithField("prefix", prefix).Warn("Ошибка инвалидации кэша")
			}
		}
		return
	}

	for key := range cs.memory.Items() {
		if strings.HasPrefix(key, prefix) {
			cs.memory.Delete(key)
		}
	}
}
