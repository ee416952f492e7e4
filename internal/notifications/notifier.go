// Package notifications implements the best-effort notifier boundary:
// high-score match events are enqueued to Redis, delivered by the worker
// through the mail API, and each attempt is recorded in notification_logs.
package notifications

import (
	"context"
	"fmt"

	"github.com/expansio/backend/internal/models"
	"github.com/expansio/backend/pkg/queue"
)

// QueueNotifier enqueues match notification jobs for asynchronous delivery.
// Enqueue errors propagate to the caller, which logs and discards them; the
// rebuild never waits on delivery.
type QueueNotifier struct {
	queue *queue.Queue
}

// NewQueueNotifier creates a queue-backed notifier.
func NewQueueNotifier(q *queue.Queue) *QueueNotifier {
	return &QueueNotifier{queue: q}
}

// HighScoreMatch enqueues a notification for the owning client.
func (n *QueueNotifier) HighScoreMatch(ctx context.Context, match *models.Match, project *models.Project, client *models.Client) error {
	payload := queue.MatchNotificationPayload{
		ProjectID:      match.ProjectID,
		VendorID:       match.VendorID,
		Score:          match.Score,
		Country:        project.Country,
		ClientName:     client.Name,
		RecipientEmail: client.Email,
	}
	if err := n.queue.EnqueueMatchNotification(ctx, payload); err != nil {
		return fmt.Errorf("enqueue match notification: %w", err)
	}
	return nil
}
