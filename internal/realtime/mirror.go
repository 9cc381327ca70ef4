package realtime

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Mirror republishes every routed event to a Redis channel per event
// kind, so dashboards and sibling instances can observe the stream.
// Publishing is fire-and-forget: a failed publish is logged and never
// surfaces to the actor whose mutation produced the event.
type Mirror struct {
	rdb *redis.Client
}

// NewMirror connects the event mirror.
func NewMirror(addr, password string, db int) *Mirror {
	return &Mirror{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Publish mirrors one framed event.
func (m *Mirror) Publish(event string, payload []byte) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.rdb.Publish(ctx, "brigade:events:"+event, payload).Err(); err != nil {
			log.Printf("realtime: event mirror publish failed: %v", err)
		}
	}()
}

// Close releases the Redis connection.
func (m *Mirror) Close() error {
	return m.rdb.Close()
}
