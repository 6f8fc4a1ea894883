package repository

import (
	"context"
	"fmt"

	"defi-assistant/models"
	"defi-assistant/observability"
)

const defaultFeedbackLimit = 50

// CreateFeedback stores one feedback entry
func (r *Repository) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("insert", "message_feedback")

	_, err := r.db.Exec(ctx, `
		INSERT INTO message_feedback (id, message_id, feedback, created_at)
		VALUES ($1, $2, $3, $4)
	`, fb.ID, fb.MessageID, fb.Feedback, fb.CreatedAt)
	if err != nil {
		metrics.RecordDBError("insert", "message_feedback")
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// GetFeedback returns recent feedback, newest first. An empty messageID lists all messages.
func (r *Repository) GetFeedback(ctx context.Context, messageID string, limit int) ([]models.Feedback, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "message_feedback")

	if limit <= 0 {
		limit = defaultFeedbackLimit
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, message_id, feedback, created_at
		FROM message_feedback
		WHERE $1 = '' OR message_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, messageID, limit)
	if err != nil {
		metrics.RecordDBError("select", "message_feedback")
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var out []models.Feedback
	for rows.Next() {
		var fb models.Feedback
		if err := rows.Scan(&fb.ID, &fb.MessageID, &fb.Feedback, &fb.CreatedAt); err != nil {
			metrics.RecordDBError("scan", "message_feedback")
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return out, nil
}
