package models

import "time"

// Like - локальная отметка "нравится".
// На пару (post_id, user_id) допускается не больше одной записи,
// это обеспечивает сериализованный toggle, а не ограничение БД.
type Like struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    int64     `gorm:"not null;index:idx_likes_post_user,priority:1" json:"post_id"`
	UserID    string    `gorm:"size:255;not null;index:idx_likes_post_user,priority:2" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}

// LikeState - состояние лайка для одной ячейки ленты
type LikeState struct {
	PostID int64 `json:"post_id"`
	Liked  bool  `json:"liked"`
	Count  int64 `json:"count"`
}
