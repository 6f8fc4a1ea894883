package repository

import (
	"context"
	"sort"
	"sync"

	"defi-assistant/models"
)

// MemoryStore keeps feedback in process memory when no database is configured
type MemoryStore struct {
	mu       sync.RWMutex
	feedback []models.Feedback
}

// NewMemoryStore creates an empty in-memory feedback store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// CreateFeedback stores one feedback entry
func (m *MemoryStore) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = append(m.feedback, *fb)
	return nil
}

// GetFeedback returns recent feedback, newest first. An empty messageID lists all messages.
func (m *MemoryStore) GetFeedback(ctx context.Context, messageID string, limit int) ([]models.Feedback, error) {
	if limit <= 0 {
		limit = defaultFeedbackLimit
	}

	m.mu.RLock()
	var out []models.Feedback
	for _, fb := range m.feedback {
		if messageID == "" || fb.MessageID == messageID {
			out = append(out, fb)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Health always succeeds for the in-memory store
func (m *MemoryStore) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store
func (m *MemoryStore) Close() {}
