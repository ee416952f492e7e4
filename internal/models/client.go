package models

import "time"

// Client is a registered account. Role is either "admin" or "client";
// clients own projects, admins see everything.
type Client struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
