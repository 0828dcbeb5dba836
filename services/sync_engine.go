package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"feedsync/models"
	"feedsync/remote"

	"golang.org/x/sync/singleflight"
)

const fetchPostsKey = "posts"

// BackgroundSyncResult - итог фоновой синхронизации после отдачи кеша
type BackgroundSyncResult struct {
	Posts []models.Post
	Err   error
}

// SyncEngine отдает ленту из локального хранилища и сверяет его с сервером
type SyncEngine struct {
	store     PostStore
	fetcher   PostFetcher
	publisher EventPublisher

	onBackgroundSync  func(BackgroundSyncResult)
	backgroundTimeout time.Duration

	group singleflight.Group
	wg    sync.WaitGroup
}

type SyncOption func(*SyncEngine)

// WithPublisher задает публикацию событий синхронизации
func WithPublisher(p EventPublisher) SyncOption {
	return func(e *SyncEngine) { e.publisher = p }
}

// WithBackgroundSyncHook получает результат фоновой синхронизации
func WithBackgroundSyncHook(fn func(BackgroundSyncResult)) SyncOption {
	return func(e *SyncEngine) { e.onBackgroundSync = fn }
}

// WithBackgroundTimeout ограничивает время фоновой синхронизации
func WithBackgroundTimeout(d time.Duration) SyncOption {
	return func(e *SyncEngine) { e.backgroundTimeout = d }
}

// NewSyncEngine создает движок. Хранилище должно быть уже открыто:
// без него ядро не принимает операций.
func NewSyncEngine(store PostStore, fetcher PostFetcher, opts ...SyncOption) *SyncEngine {
	if store == nil {
		panic("sync engine requires an initialized store")
	}
	if fetcher == nil {
		panic("sync engine requires a post fetcher")
	}
	e := &SyncEngine{
		store:     store,
		fetcher:   fetcher,
		publisher: NopPublisher{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadInitial отдает локальные посты, если они есть, и запускает
// фоновое обновление. Результат фонового обновления вызывающему
// не возвращается. Если локально пусто или чтение упало, идет в сеть.
func (e *SyncEngine) LoadInitial(ctx context.Context) ([]models.Post, error) {
	start := time.Now()

	local, err := e.store.QueryAllPosts(ctx)
	if err == nil && len(local) > 0 {
		log.Printf("DEBUG: LoadInitial served %d cached posts", len(local))
		RecordSyncOperation("load_initial_cache", time.Since(start), nil)
		e.startBackgroundSync()
		return local, nil
	}
	if err != nil {
		log.Printf("ERROR: LoadInitial local read failed, falling back to remote: %v", err)
	}

	posts, err := e.fetchAndSave(ctx)
	RecordSyncOperation("load_initial_remote", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Refresh всегда идет в сеть и сохраняет результат
func (e *SyncEngine) Refresh(ctx context.Context) ([]models.Post, error) {
	start := time.Now()
	posts, err := e.fetchAndSave(ctx)
	RecordSyncOperation("refresh", time.Since(start), err)
	if err != nil {
		log.Printf("ERROR: Refresh failed: %v", err)
		return nil, err
	}
	publishEvent(ctx, e.publisher, SyncEvent{Type: EventFeedSynced, Posts: len(posts)})
	return posts, nil
}

// Wait ждет завершения фоновых синхронизаций
func (e *SyncEngine) Wait() {
	e.wg.Wait()
}

// fetchAndSave загружает посты и сохраняет их. Параллельные вызовы
// схлопываются в один сетевой запрос: Refresh, начатый во время фоновой
// синхронизации, получает ее результат.
func (e *SyncEngine) fetchAndSave(ctx context.Context) ([]models.Post, error) {
	ch := e.group.DoChan(fetchPostsKey, func() (interface{}, error) {
		// Общий запрос не обрывается отменой одного из ожидающих,
		// но срок первого вызывающего ограничивает и его
		workCtx := context.WithoutCancel(ctx)
		if deadline, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			workCtx, cancel = context.WithDeadline(workCtx, deadline)
			defer cancel()
		}

		records, err := e.fetcher.FetchPosts(workCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				err = fmt.Errorf("%w: %w", remote.ErrNetwork, err)
			}
			return nil, classify("fetch posts", err)
		}
		rows, err := e.store.InsertPosts(workCtx, remote.ToModels(records))
		if err != nil {
			return nil, classify("save posts", err)
		}
		return rows, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		rows := res.Val.([]models.Post)
		out := make([]models.Post, len(rows))
		copy(out, rows)
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *SyncEngine) startBackgroundSync() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ctx := context.Background()
		if e.backgroundTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.backgroundTimeout)
			defer cancel()
		}

		start := time.Now()
		posts, err := e.fetchAndSave(ctx)
		RecordSyncOperation("background_sync", time.Since(start), err)

		event := SyncEvent{Type: EventFeedSynced, Posts: len(posts)}
		if err != nil {
			log.Printf("ERROR: Background sync failed: %v", err)
			event.Error = err.Error()
		} else {
			log.Printf("DEBUG: Background sync saved %d posts", len(posts))
		}
		publishEvent(ctx, e.publisher, event)

		if e.onBackgroundSync != nil {
			e.onBackgroundSync(BackgroundSyncResult{Posts: posts, Err: err})
		}
	}()
}
