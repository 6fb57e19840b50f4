package models

import "time"

// BroadcastAll addresses a notification to the whole student roster.
const BroadcastAll = "all"

// Notification is a message addressed to one user.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BroadcastEvent is published after a fan-out succeeds.
type BroadcastEvent struct {
	SenderID   string    `json:"sender_id"`
	Target     string    `json:"target"`
	Title      string    `json:"title"`
	Recipients int       `json:"recipients"`
	SentAt     time.Time `json:"sent_at"`
}
