package services

import (
	"context"
	"errors"

	"feedsync/models"
)

// FeedCore - интерфейс ядра для слоя отображения в форме колбэков.
// Каждый вызов выполняется в своей горутине; колбэки вызываются из нее.
type FeedCore struct {
	ctx    context.Context
	engine *SyncEngine
	likes  *LikeLedger
}

// NewFeedCore связывает движок и реестр лайков. ctx ограничивает
// время жизни всех операций: его отмена отменяет ожидание результатов.
func NewFeedCore(ctx context.Context, engine *SyncEngine, likes *LikeLedger) *FeedCore {
	return &FeedCore{ctx: ctx, engine: engine, likes: likes}
}

// LoadInitial отдает кеш или, при пустом кеше, результат загрузки из сети
func (c *FeedCore) LoadInitial(onResult func([]models.Post, error)) {
	go func() {
		onResult(c.engine.LoadInitial(c.ctx))
	}()
}

// Refresh всегда идет в сеть. onComplete вызывается ровно один раз
// до onResult. При ошибке onResult получает *UserError с текстом для
// пользователя.
func (c *FeedCore) Refresh(onResult func([]models.Post, error), onComplete func()) {
	go func() {
		posts, err := c.engine.Refresh(c.ctx)
		if onComplete != nil {
			onComplete()
		}
		if err != nil {
			var ue *UserError
			if !errors.As(err, &ue) {
				err = &UserError{Message: UserMessage(err), Err: err}
			}
			onResult(nil, err)
			return
		}
		onResult(posts, nil)
	}()
}

func (c *FeedCore) IsLiked(postID int64, userID string, onResult func(bool)) {
	go func() {
		onResult(c.likes.IsLiked(c.ctx, postID, userID))
	}()
}

func (c *FeedCore) LikesCount(postID int64, onResult func(int64)) {
	go func() {
		onResult(c.likes.LikesCount(c.ctx, postID))
	}()
}

func (c *FeedCore) ToggleLike(postID int64, userID string, onResult func(bool, error)) {
	go func() {
		onResult(c.likes.ToggleLike(c.ctx, postID, userID))
	}()
}
