package models

import "time"

// Post - пост из удаленной ленты, сохраненный локально.
// ID приходит с сервера и уникален в хранилище.
type Post struct {
	ID       int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	UserID   int64     `gorm:"index" json:"user_id"`
	Title    string    `gorm:"type:text" json:"title"`
	Body     string    `gorm:"type:text" json:"body"`
	SyncedAt time.Time `gorm:"index" json:"synced_at"`
}

func (Post) TableName() string {
	return "posts"
}

// FeedResponse - страница ленты для клиента
type FeedResponse struct {
	Posts   []Post `json:"posts"`
	HasMore bool   `json:"has_more"`
	Total   int    `json:"total"`
}
