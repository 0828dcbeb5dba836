package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"feedsync/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrStore       = errors.New("store failure")
	ErrStoreClosed = fmt.Errorf("%w: store is closed", ErrStore)
)

const insertBatchSize = 100

func storeErr(op string, err error) error {
	if errors.Is(err, ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

const (
	opPending int32 = iota
	opStarted
	opAbandoned
)

// writeOp - задача для писателя. Результат возвращается через Done.
// state решает гонку между началом транзакции и уходом вызывающего:
// начатую транзакцию вызывающий обязан дождаться.
type writeOp struct {
	ctx   context.Context
	fn    func(tx *gorm.DB) error
	Done  chan error
	state atomic.Int32
}

// Store - локальное хранилище постов и лайков.
// Все изменения выполняются одной горутиной-писателем в порядке поступления,
// каждое в своей транзакции. Чтения идут мимо писателя и выполняются параллельно.
type Store struct {
	manager *Manager
	queue   chan *writeOp

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewStore запускает писателя поверх открытого Manager
func NewStore(manager *Manager, queueSize int) *Store {
	if queueSize <= 0 {
		queueSize = 64
	}
	s := &Store{
		manager: manager,
		queue:   make(chan *writeOp, queueSize),
	}
	s.wg.Add(1)
	go s.runWriter()
	return s
}

func (s *Store) runWriter() {
	defer s.wg.Done()
	for op := range s.queue {
		s.apply(op)
	}
}

func (s *Store) apply(op *writeOp) {
	// Вызывающий уже ушел, транзакцию не начинаем
	if !op.state.CompareAndSwap(opPending, opStarted) {
		op.Done <- op.ctx.Err()
		return
	}
	if err := op.ctx.Err(); err != nil {
		op.Done <- err
		return
	}
	// Начатая транзакция доводится до конца независимо от отмены
	ctx := context.WithoutCancel(op.ctx)
	op.Done <- s.manager.GetWriteDB(ctx).Transaction(op.fn)
}

// Perform выполняет fn в транзакции на писателе и ждет результата.
// Ошибка fn откатывает транзакцию целиком. Отмена ctx до начала
// транзакции возвращает ctx.Err(); после начала возвращается итог
// транзакции.
func (s *Store) Perform(ctx context.Context, fn func(tx *gorm.DB) error) error {
	op := &writeOp{ctx: ctx, fn: fn, Done: make(chan error, 1)}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	select {
	case s.queue <- op:
		s.mu.RUnlock()
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case err := <-op.Done:
		return err
	case <-ctx.Done():
		if op.state.CompareAndSwap(opPending, opAbandoned) {
			return ctx.Err()
		}
		return <-op.Done
	}
}

func (s *Store) reader(ctx context.Context) (*gorm.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.manager.GetReadOnlyDB(ctx), nil
}

// InsertPosts сохраняет посты с заменой по id. Повторная загрузка
// того же id обновляет строку и не создает дубль. Повторы внутри
// одной пачки схлопываются в последнее значение.
func (s *Store) InsertPosts(ctx context.Context, posts []models.Post) ([]models.Post, error) {
	rows := dedupePosts(posts)
	if len(rows) == 0 {
		return []models.Post{}, nil
	}

	now := time.Now().UTC()
	for i := range rows {
		rows[i].SyncedAt = now
	}

	err := s.Perform(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "title", "body", "synced_at"}),
		}).CreateInBatches(&rows, insertBatchSize).Error
	})
	if err != nil {
		log.Printf("ERROR: Failed to save %d posts: %v", len(rows), err)
		return nil, storeErr("insert posts", err)
	}

	log.Printf("DEBUG: Saved posts, input=%d written=%d", len(posts), len(rows))
	return rows, nil
}

func dedupePosts(posts []models.Post) []models.Post {
	rows := make([]models.Post, 0, len(posts))
	seen := make(map[int64]int, len(posts))
	for _, p := range posts {
		if idx, ok := seen[p.ID]; ok {
			rows[idx] = p
			continue
		}
		seen[p.ID] = len(rows)
		rows = append(rows, p)
	}
	return rows
}

// QueryAllPosts возвращает все посты по возрастанию id
func (s *Store) QueryAllPosts(ctx context.Context) ([]models.Post, error) {
	rdb, err := s.reader(ctx)
	if err != nil {
		return nil, err
	}
	var posts []models.Post
	if err := rdb.Order("id ASC").Find(&posts).Error; err != nil {
		return nil, storeErr("query posts", err)
	}
	return posts, nil
}

// CountPosts возвращает количество сохраненных постов
func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	rdb, err := s.reader(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := rdb.Model(&models.Post{}).Count(&n).Error; err != nil {
		return 0, storeErr("count posts", err)
	}
	return n, nil
}

// FindLikeTx ищет лайк пары внутри переданной транзакции
func FindLikeTx(tx *gorm.DB, postID int64, userID string) (*models.Like, error) {
	var likes []models.Like
	err := tx.Where("post_id = ? AND user_id = ?", postID, userID).Limit(1).Find(&likes).Error
	if err != nil {
		return nil, err
	}
	if len(likes) == 0 {
		return nil, nil
	}
	return &likes[0], nil
}

// CreateLikeTx создает лайк с новым идентификатором и текущим временем
func CreateLikeTx(tx *gorm.DB, postID int64, userID string) (*models.Like, error) {
	like := &models.Like{
		ID:        uuid.NewString(),
		PostID:    postID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.Create(like).Error; err != nil {
		return nil, err
	}
	return like, nil
}

// DeleteLikeTx удаляет лайк по идентификатору
func DeleteLikeTx(tx *gorm.DB, like *models.Like) error {
	return tx.Where("id = ?", like.ID).Delete(&models.Like{}).Error
}

// FindLike - точечный поиск лайка, nil если его нет
func (s *Store) FindLike(ctx context.Context, postID int64, userID string) (*models.Like, error) {
	rdb, err := s.reader(ctx)
	if err != nil {
		return nil, err
	}
	like, err := FindLikeTx(rdb, postID, userID)
	if err != nil {
		return nil, storeErr("find like", err)
	}
	return like, nil
}

// InsertLike создает лайк через писателя
func (s *Store) InsertLike(ctx context.Context, postID int64, userID string) (*models.Like, error) {
	var like *models.Like
	err := s.Perform(ctx, func(tx *gorm.DB) error {
		var err error
		like, err = CreateLikeTx(tx, postID, userID)
		return err
	})
	if err != nil {
		return nil, storeErr("insert like", err)
	}
	return like, nil
}

// DeleteLike удаляет лайк через писателя
func (s *Store) DeleteLike(ctx context.Context, like *models.Like) error {
	if like == nil {
		return nil
	}
	err := s.Perform(ctx, func(tx *gorm.DB) error {
		return DeleteLikeTx(tx, like)
	})
	if err != nil {
		return storeErr("delete like", err)
	}
	return nil
}

// CountLikes возвращает количество лайков поста
func (s *Store) CountLikes(ctx context.Context, postID int64) (int64, error) {
	rdb, err := s.reader(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := rdb.Model(&models.Like{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, storeErr("count likes", err)
	}
	return n, nil
}

// Close останавливает писателя после обработки очереди и закрывает БД
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
	return s.manager.Close()
}
