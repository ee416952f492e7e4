package models

import "time"

// Notification log statuses.
const (
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// NotificationLog records one match notification delivery attempt.
type NotificationLog struct {
	ID             int64     `json:"id"`
	ProjectID      int64     `json:"project_id"`
	VendorID       int64     `json:"vendor_id"`
	RecipientEmail string    `json:"recipient_email"`
	Subject        string    `json:"subject"`
	Status         string    `json:"status"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
