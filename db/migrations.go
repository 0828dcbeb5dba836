package db

import (
	"fmt"

	"gorm.io/gorm"
)

// ConfigureSQLite включает WAL, чтобы чтения не ждали писателя
func ConfigureSQLite(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			return fmt.Errorf("failed to apply %s: %w", p, err)
		}
	}
	return nil
}

// CreateLikesIndex создает индекс для поиска лайка по паре (post_id, user_id).
// AutoMigrate делает то же по тегам модели; функция нужна для схем,
// созданных вручную.
func CreateLikesIndex(db *gorm.DB) error {
	createIndexSQL := `
		CREATE INDEX IF NOT EXISTS idx_likes_post_user ON likes (post_id, user_id);
	`
	if err := db.Exec(createIndexSQL).Error; err != nil {
		return fmt.Errorf("failed to create index idx_likes_post_user: %w", err)
	}
	return nil
}
