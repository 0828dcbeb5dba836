package services

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feedsync/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAvatars struct {
	calls atomic.Int32
	data  map[int64][]byte
	delay time.Duration
}

func (s *stubAvatars) FetchAvatar(ctx context.Context, userID int64) []byte {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil
		}
	}
	return s.data[userID]
}

func TestAvatarServiceWithoutCache(t *testing.T) {
	fetcher := &stubAvatars{data: map[int64][]byte{1: []byte("img-1")}}
	svc := NewAvatarService(fetcher, nil, time.Minute)
	ctx := context.Background()

	require.Equal(t, []byte("img-1"), svc.Load(ctx, 1))
	require.Nil(t, svc.Load(ctx, 2), "missing avatar yields nil, never an error")
	require.Error(t, svc.Invalidate(ctx, 1))
}

func TestAvatarServiceCoalescesLoads(t *testing.T) {
	fetcher := &stubAvatars{data: map[int64][]byte{7: []byte("img-7")}, delay: 100 * time.Millisecond}
	svc := NewAvatarService(fetcher, nil, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, []byte("img-7"), svc.Load(context.Background(), 7))
		}()
	}
	wg.Wait()

	require.Less(t, fetcher.calls.Load(), int32(8))
}

func TestAvatarServiceFirstCallerCancelDoesNotStarveOthers(t *testing.T) {
	fetcher := &stubAvatars{data: map[int64][]byte{5: []byte("img-5")}, delay: 200 * time.Millisecond}
	svc := NewAvatarService(fetcher, nil, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Load(ctx, 5)
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan []byte, 1)
	go func() { second <- svc.Load(context.Background(), 5) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case data := <-second:
		require.Equal(t, []byte("img-5"), data)
	case <-time.After(2 * time.Second):
		t.Fatal("avatar load not delivered")
	}
}

// Требует запущенный Redis, адрес берется из REDIS_HOST/REDIS_PORT
func TestAvatarServiceRedisCache(t *testing.T) {
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("REDIS_HOST is not set")
	}
	conf, err := config.LoadConfig("")
	require.NoError(t, err)

	ctx := context.Background()
	client, err := NewRedisClient(ctx, conf.Redis)
	require.NoError(t, err)
	defer client.Close()

	fetcher := &stubAvatars{data: map[int64][]byte{42: []byte("img-42")}}
	svc := NewAvatarService(fetcher, client, time.Minute)
	_ = svc.Invalidate(ctx, 42)

	require.Equal(t, []byte("img-42"), svc.Load(ctx, 42))
	require.Equal(t, []byte("img-42"), svc.Load(ctx, 42))
	require.Equal(t, int32(1), fetcher.calls.Load(), "second load must come from cache")

	require.NoError(t, svc.Invalidate(ctx, 42))
}

func TestNewRedisClientDisabled(t *testing.T) {
	client, err := NewRedisClient(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	require.Nil(t, client)
}
