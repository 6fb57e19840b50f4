package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-registration-api/internal/models"
)

// ChatRepository persists support chat messages.
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository constructs the repository.
func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create stores a message.
func (r *ChatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO chat_messages (id, sender_id, receiver_id, message, created_at)
VALUES (:id, :sender_id, :receiver_id, :message, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}
	return nil
}

// Conversation returns messages exchanged between a and b, oldest first.
func (r *ChatRepository) Conversation(ctx context.Context, a, b string) ([]models.ChatMessage, error) {
	const query = `SELECT id, sender_id, receiver_id, message, created_at FROM chat_messages
WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
ORDER BY created_at ASC, id ASC`
	var messages []models.ChatMessage
	if err := r.db.SelectContext(ctx, &messages, query, a, b); err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return messages, nil
}
