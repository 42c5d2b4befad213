// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) that receives applied debate actions.
const DefaultQueueName = "argumentor_actions"

// Options selects the Redis server. Zero values mean localhost:6379, DB 0.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a client and pings it so a bad address fails at startup rather
// than on the first room write.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	addr := opts.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// ActionRecord is one applied transition, in the order the room saw it.
type ActionRecord struct {
	RoomCode   string         `json:"room_code"`
	ActionType string         `json:"action_type"`
	Side       string         `json:"side,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	Timestamp  int64          `json:"timestamp"`
}

// ActionLog appends action records to a Redis list for offline consumers.
type ActionLog struct {
	rdb   redis.Cmdable
	queue string
}

// NewActionLog returns a log writing to queue. An empty queue name disables it.
func NewActionLog(rdb redis.Cmdable, queue string) *ActionLog {
	if queue == "" {
		return nil
	}
	return &ActionLog{rdb: rdb, queue: queue}
}

// Publish serializes the record to JSON and pushes it onto the queue.
// A nil log is a no-op.
func (l *ActionLog) Publish(ctx context.Context, record ActionRecord) error {
	if l == nil {
		return nil
	}
	if record.Timestamp == 0 {
		record.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := l.rdb.RPush(ctx, l.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", l.queue, err)
	}
	return nil
}
