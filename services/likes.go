package services

import (
	"context"
	"log"
	"time"

	"feedsync/db"
	"feedsync/models"

	"gorm.io/gorm"
)

// LikeLedger ведет локальные лайки поверх хранилища.
// Переключение выполняется на писателе хранилища, поэтому два быстрых
// переключения одной пары не могут оба увидеть отсутствие лайка.
type LikeLedger struct {
	store     LikeStore
	publisher EventPublisher
}

func NewLikeLedger(store LikeStore, publisher EventPublisher) *LikeLedger {
	if store == nil {
		panic("like ledger requires an initialized store")
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &LikeLedger{store: store, publisher: publisher}
}

// ToggleLike ставит лайк, если его нет, и снимает, если есть.
// Возвращает новое состояние: true - поставлен. Ошибки не глотаются.
func (l *LikeLedger) ToggleLike(ctx context.Context, postID int64, userID string) (bool, error) {
	start := time.Now()
	var liked bool

	err := l.store.Perform(ctx, func(tx *gorm.DB) error {
		existing, err := db.FindLikeTx(tx, postID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			liked = false
			return db.DeleteLikeTx(tx, existing)
		}
		if _, err := db.CreateLikeTx(tx, postID, userID); err != nil {
			return err
		}
		liked = true
		return nil
	})
	if err != nil {
		err = classify("toggle like", err)
		RecordSyncOperation("toggle_like", time.Since(start), err)
		log.Printf("ERROR: ToggleLike failed for post=%d user=%s: %v", postID, userID, err)
		return false, err
	}
	RecordSyncOperation("toggle_like", time.Since(start), nil)

	state := "unliked"
	if liked {
		state = "liked"
	}
	likesToggledTotal.WithLabelValues(state).Inc()

	publishEvent(ctx, l.publisher, SyncEvent{
		Type:   EventLikeToggled,
		PostID: postID,
		UserID: userID,
		Liked:  liked,
	})
	return liked, nil
}

// IsLiked проверяет лайк пары. При ошибке хранилища возвращает false.
func (l *LikeLedger) IsLiked(ctx context.Context, postID int64, userID string) bool {
	like, err := l.store.FindLike(ctx, postID, userID)
	if err != nil {
		log.Printf("DEBUG: IsLiked read failed for post=%d: %v", postID, err)
		return false
	}
	return like != nil
}

// LikesCount возвращает число лайков поста. При ошибке хранилища - 0.
func (l *LikeLedger) LikesCount(ctx context.Context, postID int64) int64 {
	n, err := l.store.CountLikes(ctx, postID)
	if err != nil {
		log.Printf("DEBUG: LikesCount read failed for post=%d: %v", postID, err)
		return 0
	}
	return n
}

// LikeState собирает состояние лайка для одной ячейки ленты
func (l *LikeLedger) LikeState(ctx context.Context, postID int64, userID string) models.LikeState {
	state := models.LikeState{PostID: postID, Count: l.LikesCount(ctx, postID)}
	if userID != "" {
		state.Liked = l.IsLiked(ctx, postID, userID)
	}
	return state
}
