package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when the notification does not exist or is not
	// owned by the caller.
	ErrNotFound = errors.New("notification not found")
)

// Publisher pushes freshly created notifications to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

// UserChannel names the per-user pub/sub channel.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("notify:user:%s", userID)
}

// RedisPublisher delivers notifications over Redis pub/sub. Delivery to
// connected clients is best-effort; the durable copy lives in Postgres.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates the publisher.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish serializes the notification and publishes it on the user's channel.
func (p *RedisPublisher) Publish(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, UserChannel(n.UserID), payload).Err()
}
