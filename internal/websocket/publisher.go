package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"learnai-backend/internal/models"
)

// Channel is the Redis pub/sub channel carrying one user's events.
func Channel(userID uuid.UUID) string {
	return "user_updates:" + userID.String()
}

// Publisher sends events to whichever instance holds the user's sockets.
type Publisher struct {
	redis *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{redis: client}
}

func (p *Publisher) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", msg.Type, err)
	}
	return p.redis.Publish(ctx, Channel(userID), data).Err()
}
