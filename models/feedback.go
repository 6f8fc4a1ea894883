package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback is a user's reaction to an assistant message
type Feedback struct {
	ID        uuid.UUID `json:"id"`
	MessageID string    `json:"message_id"`
	Feedback  string    `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFeedback creates a new Feedback record timestamped now
func NewFeedback(messageID, feedback string) *Feedback {
	return &Feedback{
		ID:        uuid.New(),
		MessageID: messageID,
		Feedback:  feedback,
		CreatedAt: time.Now(),
	}
}
