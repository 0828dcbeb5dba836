package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventLikeToggled = "like.toggled"
	EventFeedSynced  = "feed.synced"
)

// SyncEvent - событие ядра синхронизации для внешних подписчиков
type SyncEvent struct {
	Type      string    `json:"event"`
	PostID    int64     `json:"post_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Liked     bool      `json:"liked,omitempty"`
	Posts     int       `json:"posts,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventPublisher публикует события синхронизации
type EventPublisher interface {
	Publish(ctx context.Context, event SyncEvent) error
}

// NopPublisher ничего не публикует
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, SyncEvent) error { return nil }

// AMQPPublisher публикует события в topic exchange RabbitMQ
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher подключается к RabbitMQ и объявляет exchange
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // args
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	log.Printf("RabbitMQ initialized successfully, exchange: %s", exchange)
	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

// Publish публикует событие с routing key равным типу события
func (p *AMQPPublisher) Publish(ctx context.Context, event SyncEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	// amqp.Channel не безопасен для параллельной публикации
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		event.Type,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   event.CreatedAt,
			Body:        body,
		},
	)
}

// Close закрывает канал и соединение
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.Close(); err != nil {
		log.Printf("ERROR: Failed to close RabbitMQ channel: %v", err)
	}
	return p.conn.Close()
}

// publishEvent публикует событие и только логирует ошибку
func publishEvent(ctx context.Context, publisher EventPublisher, event SyncEvent) {
	if publisher == nil {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Printf("ERROR: Failed to publish %s event: %v", event.Type, err)
	}
}
