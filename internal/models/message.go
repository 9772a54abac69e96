package models

import (
	"time"
)

// Sides of a conversation a message can be hidden from
const (
	HideSent     = "sent"
	HideReceived = "received"
)

type Message struct {
	ID             int64
	Title          string
	Content        string
	SenderID       int64
	ReceiverID     int64
	SenderActive   bool
	ReceiverActive bool
	SentAt         time.Time
}

// Filter for message listings. Zero ids match any user.
// Visible limits the result to messages not hidden by the side the filter selects.
type MessageFilter struct {
	SenderID   int64
	ReceiverID int64
	Visible    bool
}
