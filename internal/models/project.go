package models

import "time"

// Project statuses.
const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusCancelled = "cancelled"
)

// Project is a client's expansion project into one country.
type Project struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Country   string    `json:"country"`
	Budget    *float64  `json:"budget,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	// ServiceIDs are the project's required services, loaded from the
	// project_services association.
	ServiceIDs []int64 `json:"service_ids,omitempty"`
	// Services carries the resolved service names when the caller asked for them.
	Services []Service `json:"services,omitempty"`
}
