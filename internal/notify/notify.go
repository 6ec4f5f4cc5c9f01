// Package notify публикует события о размещённых чанках в Redis pub/sub.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/codeRisshi25/flowai/internal/models"
)

// EventChunkPlaced — тип события для сборщика.
const EventChunkPlaced = "chunk.placed"

const pingTimeout = 3 * time.Second

// Event — JSON-сообщение, отправляемое в канал.
type Event struct {
	Type        string    `json:"type"`
	TransferID  string    `json:"transfer_id"`
	ChunkIndex  string    `json:"chunk_index"`
	OrgFileName string    `json:"org_file_name"`
	StoredName  string    `json:"stored_name"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256,omitempty"`
	Replaced    bool      `json:"replaced"`
	PlacedAt    time.Time `json:"placed_at"`
}

// NewEvent строит событие по результату размещения. Абсолютный путь наружу не уходит.
func NewEvent(p models.Placement) Event {
	return Event{
		Type:        EventChunkPlaced,
		TransferID:  p.TransferID,
		ChunkIndex:  p.ChunkIndex,
		OrgFileName: p.OrgFileName,
		StoredName:  p.StoredName,
		Size:        p.Size,
		SHA256:      p.SHA256,
		Replaced:    p.Replaced,
		PlacedAt:    p.PlacedAt,
	}
}

// RedisPublisher реализует placement.Observer через PUBLISH.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher подключается к Redis и проверяет соединение.
func NewRedisPublisher(addr, channel string) (*RedisPublisher, error) {
	if addr == "" {
		return nil, errors.New("redis addr required")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	return NewRedisPublisherFromClient(client, channel), nil
}

// NewRedisPublisherFromClient использует готовый клиент.
func NewRedisPublisherFromClient(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Channel возвращает имя канала публикации.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// ChunkPlaced публикует событие chunk.placed.
func (p *RedisPublisher) ChunkPlaced(ctx context.Context, pl models.Placement) error {
	if p == nil || p.client == nil {
		return errors.New("redis publisher not initialized")
	}

	b, err := json.Marshal(NewEvent(pl))
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return nil
}

// Close закрывает клиент.
func (p *RedisPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
