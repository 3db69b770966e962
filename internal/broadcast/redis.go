// internal/broadcast/redis.go
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/imposterhq/imposter/internal/engine"
)

// channelPrefix namespaces the pub/sub channels so one Redis can serve
// multiple deployments.
const channelPrefix = "imposter:"

// RedisBroadcaster publishes committed events to Redis pub/sub so every node
// in a multi-node deployment can fan them out to its own websocket clients.
// Fire-and-forget: a publish failure is logged, never surfaced to the engine.
type RedisBroadcaster struct {
	rdb *redis.Client
	log *logrus.Logger
}

// ConnectRedis dials Redis and verifies the connection.
func ConnectRedis(ctx context.Context, addr string, db int, log *logrus.Logger) (*RedisBroadcaster, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	if log == nil {
		log = logrus.New()
	}
	return &RedisBroadcaster{rdb: rdb, log: log}, nil
}

// Publish marshals the event and pushes it onto the topic's channel.
func (b *RedisBroadcaster) Publish(topic string, ev engine.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		b.log.WithError(err).Warn("failed to marshal event for redis")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.rdb.Publish(ctx, channelPrefix+topic, data).Err(); err != nil {
		b.log.WithError(err).WithField("topic", topic).Warn("redis publish failed")
	}
}

// Close releases the underlying client.
func (b *RedisBroadcaster) Close() error {
	return b.rdb.Close()
}

// Tee publishes every event to each of its targets in order.
type Tee []engine.Broadcaster

func (t Tee) Publish(topic string, ev engine.Event) {
	for _, b := range t {
		b.Publish(topic, ev)
	}
}
