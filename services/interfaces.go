package services

import (
	"context"

	"feedsync/models"
	"feedsync/remote"

	"gorm.io/gorm"
)

// PostFetcher загружает посты из удаленного источника
type PostFetcher interface {
	FetchPosts(ctx context.Context) ([]remote.PostRecord, error)
}

// AvatarFetcher загружает аватар; nil означает отсутствие
type AvatarFetcher interface {
	FetchAvatar(ctx context.Context, userID int64) []byte
}

// PostStore - часть хранилища, нужная движку синхронизации
type PostStore interface {
	QueryAllPosts(ctx context.Context) ([]models.Post, error)
	InsertPosts(ctx context.Context, posts []models.Post) ([]models.Post, error)
}

// LikeStore - часть хранилища, нужная реестру лайков
type LikeStore interface {
	Perform(ctx context.Context, fn func(tx *gorm.DB) error) error
	FindLike(ctx context.Context, postID int64, userID string) (*models.Like, error)
	CountLikes(ctx context.Context, postID int64) (int64, error)
}
