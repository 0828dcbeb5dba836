package services

import (
	"context"
	"fmt"

	"feedsync/config"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient подключается к Redis. Пустой host означает, что кеш
// выключен: возвращается nil без ошибки.
func NewRedisClient(ctx context.Context, conf config.RedisConfig) (*redis.Client, error) {
	if conf.Host == "" {
		return nil, nil
	}
	port := conf.Port
	if port == 0 {
		port = 6379
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", conf.Host, port),
		Password: conf.Password,
		DB:       conf.DB,
	})

	// Тест соединения
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
