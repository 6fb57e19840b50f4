package models

import "time"

// ChatMessage is a persisted support-chat line between two users.
type ChatMessage struct {
	ID         string    `db:"id" json:"id"`
	SenderID   string    `db:"sender_id" json:"sender_id"`
	ReceiverID string    `db:"receiver_id" json:"receiver_id"`
	Message    string    `db:"message" json:"message"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ChatEventInserted marks a newly stored message.
const ChatEventInserted = "inserted"

// ChatEvent is the realtime payload carrying the inserted row.
type ChatEvent struct {
	Type    string      `json:"type"`
	Message ChatMessage `json:"message"`
}

// Involves reports whether userID is sender or receiver of the event's message.
func (e ChatEvent) Involves(userID string) bool {
	return e.Message.SenderID == userID || e.Message.ReceiverID == userID
}

// ChatTurn is one entry of the AI assistant conversation held by the client.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
