package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"feedsync/config"
	"feedsync/db"
	"feedsync/models"
	"feedsync/remote"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *db.Store {
	t.Helper()
	conf := config.Default().Store
	conf.Path = filepath.Join(t.TempDir(), "feed.db")

	manager, err := db.Open(conf)
	require.NoError(t, err)

	store := db.NewStore(manager, conf.QueueSize)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func fakeRecords(n int) []remote.PostRecord {
	records := make([]remote.PostRecord, 0, n)
	for i := 1; i <= n; i++ {
		records = append(records, remote.PostRecord{
			ID:     int64(i),
			UserID: int64(gofakeit.Number(1, 10)),
			Title:  gofakeit.Sentence(5),
			Body:   gofakeit.Paragraph(1, 3, 10, " "),
		})
	}
	return records
}

// stubFetcher - управляемый удаленный источник
type stubFetcher struct {
	mu      sync.Mutex
	records []remote.PostRecord
	err     error
	block   chan struct{}
	calls   atomic.Int32
	aborted atomic.Int32
	started chan struct{}
}

func newStubFetcher(records []remote.PostRecord, err error) *stubFetcher {
	return &stubFetcher{records: records, err: err, started: make(chan struct{}, 16)}
}

func (f *stubFetcher) FetchPosts(ctx context.Context) ([]remote.PostRecord, error) {
	f.calls.Add(1)
	select {
	case f.started <- struct{}{}:
	default:
	}

	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			f.aborted.Add(1)
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]remote.PostRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *stubFetcher) set(records []remote.PostRecord, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
	f.err = err
}

// failingReadStore отказывает в чтении, запись идет в настоящее хранилище
type failingReadStore struct {
	*db.Store
}

func (s failingReadStore) QueryAllPosts(context.Context) ([]models.Post, error) {
	return nil, db.ErrStore
}

// recordingPublisher запоминает опубликованные события
type recordingPublisher struct {
	mu     sync.Mutex
	events []SyncEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event SyncEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) byType(eventType string) []SyncEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []SyncEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

var errOffline = errors.New("dial tcp: connection refused")

func networkErr() error {
	return errors.Join(remote.ErrNetwork, errOffline)
}
