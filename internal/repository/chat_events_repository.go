package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-registration-api/internal/models"
)

// ChatEventBus fans chat events out over Redis pub/sub, one channel per user.
type ChatEventBus struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewChatEventBus constructs the bus. prefix namespaces the channels.
func NewChatEventBus(client *redis.Client, prefix string, logger *zap.Logger) *ChatEventBus {
	if prefix == "" {
		prefix = "chat_messages"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatEventBus{client: client, prefix: prefix, logger: logger}
}

// Channel returns the pub/sub channel for userID.
func (b *ChatEventBus) Channel(userID string) string {
	return b.prefix + ":" + userID
}

// Publish sends evt to both participants' channels.
func (b *ChatEventBus) Publish(ctx context.Context, evt models.ChatEvent) error {
	if b.client == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal chat event: %w", err)
	}
	for _, userID := range []string{evt.Message.SenderID, evt.Message.ReceiverID} {
		if err := b.client.Publish(ctx, b.Channel(userID), payload).Err(); err != nil {
			return fmt.Errorf("publish chat event: %w", err)
		}
	}
	return nil
}

// Subscribe streams events addressed to or from userID until ctx is cancelled.
// The returned channel is closed when the subscription ends.
func (b *ChatEventBus) Subscribe(ctx context.Context, userID string) (<-chan models.ChatEvent, error) {
	if b.client == nil {
		return nil, fmt.Errorf("chat realtime unavailable")
	}
	sub := b.client.Subscribe(ctx, b.Channel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe chat channel: %w", err)
	}

	out := make(chan models.ChatEvent)
	go func() {
		defer close(out)
		defer sub.Close()
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var evt models.ChatEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					b.logger.Warn("discarding malformed chat event", zap.Error(err))
					continue
				}
				if !evt.Involves(userID) {
					continue
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
