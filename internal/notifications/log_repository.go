package notifications

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expansio/backend/internal/models"
)

// LogRepository records notification delivery attempts.
type LogRepository struct {
	pool *pgxpool.Pool
}

// NewLogRepository creates a notification log repository.
func NewLogRepository(pool *pgxpool.Pool) *LogRepository {
	return &LogRepository{pool: pool}
}

// Record inserts one delivery attempt. errMsg is empty on success.
func (r *LogRepository) Record(ctx context.Context, projectID, vendorID int64, recipient, subject, status, errMsg string) error {
	const q = `INSERT INTO notification_logs (project_id, vendor_id, recipient_email, subject, status, error_message)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''))`
	_, err := r.pool.Exec(ctx, q, projectID, vendorID, recipient, subject, status, errMsg)
	return err
}

// ListByProject returns delivery attempts for one project, newest first.
func (r *LogRepository) ListByProject(ctx context.Context, projectID int64) ([]models.NotificationLog, error) {
	const q = `SELECT id, project_id, vendor_id, recipient_email, subject, status, COALESCE(error_message,''), created_at
		FROM notification_logs WHERE project_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.NotificationLog
	for rows.Next() {
		var l models.NotificationLog
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.VendorID, &l.RecipientEmail, &l.Subject, &l.Status, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
