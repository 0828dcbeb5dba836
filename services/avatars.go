package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"
)

const AVATAR_KEY_PREFIX = "avatar:" // Префикс для кеша аватаров

// AvatarService загружает аватары с кешем в Redis.
// Ошибки не возвращаются: без аватара ячейка показывает заглушку.
type AvatarService struct {
	fetcher AvatarFetcher
	redis   *redis.Client
	ttl     time.Duration
	group   singleflight.Group
}

// NewAvatarService создает сервис. redisClient может быть nil.
func NewAvatarService(fetcher AvatarFetcher, redisClient *redis.Client, ttl time.Duration) *AvatarService {
	return &AvatarService{
		fetcher: fetcher,
		redis:   redisClient,
		ttl:     ttl,
	}
}

func avatarKey(userID int64) string {
	return fmt.Sprintf("%s%d", AVATAR_KEY_PREFIX, userID)
}

// Load возвращает байты аватара или nil
func (s *AvatarService) Load(ctx context.Context, userID int64) []byte {
	if data := s.fromCache(ctx, userID); data != nil {
		avatarLoadsTotal.WithLabelValues("cache").Inc()
		return data
	}

	// Параллельные запросы одного аватара идут в сеть один раз.
	// Отмена первого вызывающего не должна оставить остальных без картинки.
	v, _, _ := s.group.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		workCtx := context.WithoutCancel(ctx)
		data := s.fetcher.FetchAvatar(workCtx, userID)
		if data != nil {
			s.toCache(workCtx, userID, data)
		}
		return data, nil
	})

	data, _ := v.([]byte)
	if data == nil {
		avatarLoadsTotal.WithLabelValues("missing").Inc()
		return nil
	}
	avatarLoadsTotal.WithLabelValues("remote").Inc()
	return data
}

func (s *AvatarService) fromCache(ctx context.Context, userID int64) []byte {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, avatarKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("DEBUG: Avatar cache read failed for user=%d: %v", userID, err)
		}
		return nil
	}
	return data
}

func (s *AvatarService) toCache(ctx context.Context, userID int64, data []byte) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, avatarKey(userID), data, s.ttl).Err(); err != nil {
		log.Printf("DEBUG: Avatar cache write failed for user=%d: %v", userID, err)
	}
}

// Invalidate удаляет аватар из кеша
func (s *AvatarService) Invalidate(ctx context.Context, userID int64) error {
	if s.redis == nil {
		return fmt.Errorf("redis not available")
	}
	return s.redis.Del(ctx, avatarKey(userID)).Err()
}
