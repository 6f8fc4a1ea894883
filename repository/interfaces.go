package repository

import (
	"context"

	"defi-assistant/models"
)

// FeedbackStore defines the feedback persistence operations
type FeedbackStore interface {
	Close()
	Health(ctx context.Context) error
	CreateFeedback(ctx context.Context, fb *models.Feedback) error
	GetFeedback(ctx context.Context, messageID string, limit int) ([]models.Feedback, error)
}

// Compile-time interface verification
var _ FeedbackStore = (*Repository)(nil)
var _ FeedbackStore = (*MemoryStore)(nil)
