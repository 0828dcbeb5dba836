package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"feedsync/config"
	"feedsync/models"
)

var (
	ErrNetwork       = errors.New("network failure")
	ErrDecode        = errors.New("decode failure")
	ErrEmptyResponse = errors.New("empty response")
)

// Максимальный размер аватара
const maxAvatarBytes = 2 * 1024 * 1024

// PostRecord - пост в формате удаленного API
type PostRecord struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// ToModel переводит запись API в модель хранилища
func (r PostRecord) ToModel() models.Post {
	return models.Post{
		ID:     r.ID,
		UserID: r.UserID,
		Title:  r.Title,
		Body:   r.Body,
	}
}

// ToModels переводит пачку записей
func ToModels(records []PostRecord) []models.Post {
	posts := make([]models.Post, 0, len(records))
	for _, r := range records {
		posts = append(posts, r.ToModel())
	}
	return posts
}

// Client ходит в удаленный источник постов и аватаров.
// Без состояния, без кеша и без повторов.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	avatarBaseURL string
}

// NewClient создает клиента. Нулевой таймаут оставляет поведение
// транспорта по умолчанию: запрос без ответа висит бесконечно.
func NewClient(conf config.RemoteConfig) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: conf.Timeout},
		baseURL:       strings.TrimRight(conf.BaseURL, "/"),
		avatarBaseURL: strings.TrimRight(conf.AvatarBaseURL, "/"),
	}
}

// FetchPosts загружает всю коллекцию постов
func (c *Client) FetchPosts(ctx context.Context) ([]PostRecord, error) {
	url := c.baseURL + "/posts"
	log.Printf("DEBUG: FetchPosts start, url=%s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("ERROR: FetchPosts failed: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrNetwork, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %w", ErrNetwork, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyResponse
	}

	var records []PostRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	log.Printf("DEBUG: FetchPosts completed, records=%d", len(records))
	return records, nil
}

// FetchAvatar загружает аватар пользователя.
// Любая ошибка дает nil: аватар не критичен для ленты.
func (c *Client) FetchAvatar(ctx context.Context, userID int64) []byte {
	url := fmt.Sprintf("%s/seed/%d/80/80", c.avatarBaseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes+1))
	if err != nil || len(data) == 0 || len(data) > maxAvatarBytes {
		return nil
	}
	return data
}
