package models

import "time"

// Vendor offers services in a set of countries. Rating is on a 0-5 scale;
// ResponseSLAHours is the promised response time, lower is better. Both are
// optional.
type Vendor struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Rating           *float64  `json:"rating,omitempty"`
	ResponseSLAHours *int      `json:"response_sla_hours,omitempty"`
	CreatedAt        time.Time `json:"created_at"`

	// ServiceIDs are the vendor's capabilities (vendor_services association).
	ServiceIDs []int64 `json:"service_ids,omitempty"`
	// Countries is the vendor's coverage (vendor_countries association).
	Countries []string `json:"countries,omitempty"`
}
