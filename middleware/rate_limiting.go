package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RateLimitConfig конфигурация rate limiting
type RateLimitConfig struct {
	Requests     int                       // Количество запросов
	Window       time.Duration             // Временное окно
	Prefix       string                    // Префикс ключа в Redis
	KeyGenerator func(*gin.Context) string // Генератор ключей
}

// DefaultKeyGenerator генерирует ключ на основе IP адреса
func DefaultKeyGenerator(c *gin.Context) string {
	return c.ClientIP()
}

// UserKeyGenerator генерирует ключ на основе пользователя
func UserKeyGenerator(c *gin.Context) string {
	if id := GetCurrentUserID(c); id != nil {
		return "user:" + strconv.FormatUint(uint64(*id), 10)
	}
	return c.ClientIP()
}

// IPRateLimiter token bucket на каждый ключ; используется без Redis
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	r        rate.Limit
	b        int
	ttl      time.Duration
	sweptAt  time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter создает ограничитель: b запросов подряд, затем r в секунду
func NewIPRateLimiter(r rate.Limit, b int, ttl time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: make(map[string]*limiterEntry),
		r:        r,
		b:        b,
		ttl:      ttl,
		sweptAt:  time.Now(),
	}
}

// Allow расходует один токен ключа
func (i *IPRateLimiter) Allow(key string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := time.Now()
	if now.Sub(i.sweptAt) > i.ttl {
		for k, e := range i.limiters {
			if now.Sub(e.lastSeen) > i.ttl {
				delete(i.limiters, k)
			}
		}
		i.sweptAt = now
	}

	entry, ok := i.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(i.r, i.b)}
		i.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// Len количество отслеживаемых ключей
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.limiters)
}

// RateLimit создает middleware для ограничения частоты запросов.
// С Redis считает запросы в фиксированном окне (общий счетчик для всех инстансов),
// без Redis или при его ошибке использует token bucket в памяти процесса
func RateLimit(redisClient *redis.Client, config RateLimitConfig, logger *logrus.Logger) gin.HandlerFunc {
	if config.KeyGenerator == nil {
		config.KeyGenerator = DefaultKeyGenerator
	}
	if config.Prefix == "" {
		config.Prefix = "rate_limit:"
	}
	local := NewIPRateLimiter(rate.Every(config.Window/time.Duration(config.Requests)), config.Requests, 10*config.Window)

	return func(c *gin.Context) {
		key := config.KeyGenerator(c)

		if redisClient != nil {
			allowed, remaining, err := redisAllow(c, redisClient, config.Prefix+key, config)
			if err == nil {
				c.Header("X-RateLimit-Limit", strconv.Itoa(config.Requests))
				c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
				if !allowed {
					tooManyRequests(c, config)
					return
				}
				c.Next()
				return
			}
			logger.WithError(err).Warn("Redis недоступен для rate limiting, используется лимит в памяти")
		}

		if !local.Allow(key) {
			tooManyRequests(c, config)
			return
		}
		c.Next()
	}
}

func redisAllow(c *gin.Context, client *redis.Client, key string, config RateLimitConfig) (bool, int, error) {
	ctx := c.Request.Context()

	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		// TTL ставится только первым запросом окна
		if err := client.Expire(ctx, key, config.Window).Err(); err != nil {
			return false, 0, err
		}
	}

	current := int(count)
	remaining := config.Requests - current
	if remaining < 0 {
		remaining = 0
	}
	return current <= config.Requests, remaining, nil
}

func tooManyRequests(c *gin.Context, config RateLimitConfig) {
	c.Header("Retry-After", strconv.Itoa(int(config.Window.Seconds())))
	abortWithError(c, http.StatusTooManyRequests,
		fmt.Sprintf("Demasiadas solicitudes: máximo %d cada %v", config.Requests, config.Window))
}

// LoginRateLimit ограничение попыток входа по IP
func LoginRateLimit(redisClient *redis.Client, requests int, window time.Duration, logger *logrus.Logger) gin.HandlerFunc {
	if requests <= 0 {
		requests = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return RateLimit(redisClient, RateLimitConfig{
		Requests:     requests,
		Window:       window,
		Prefix:       "rate_limit:login:",
		KeyGenerator: DefaultKeyGenerator,
	}, logger)
}
