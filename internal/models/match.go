package models

import "time"

// Match is the persisted score for one (project, vendor) pair. At most one
// row exists per pair; rebuilds update the score in place and leave ID and
// CreatedAt untouched.
type Match struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	VendorID  int64     `json:"vendor_id"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
