package models

import "time"

// Admin is a chat-platform operator allowed to drive the service and
// addressed by deletion notifications.
type Admin struct {
	ID       int64
	ChatID   int64
	Username string
	AddedAt  time.Time
}

// AdminGroup is a chat-platform group that receives deletion notifications.
type AdminGroup struct {
	ID      int64
	ChatID  int64
	AddedAt time.Time
}
