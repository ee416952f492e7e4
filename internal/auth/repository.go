package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expansio/backend/internal/models"
	"github.com/expansio/backend/pkg/errs"
)

// Repository handles client account persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a client by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	const q = `SELECT id, name, email, password, role, created_at FROM clients WHERE id = $1`
	var c models.Client
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Role, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("client", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByEmail returns a client by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Client, error) {
	const q = `SELECT id, name, email, password, role, created_at FROM clients WHERE email = $1`
	var c models.Client
	err := r.pool.QueryRow(ctx, q, email).Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Role, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("client", email)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new client account. Role is always "client" at
// registration; promotion is a separate admin operation.
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string) (*models.Client, error) {
	const q = `INSERT INTO clients (name, email, password, role) VALUES ($1, $2, $3, 'client')
		RETURNING id, name, email, password, role, created_at`
	var c models.Client
	err := r.pool.QueryRow(ctx, q, name, email, passwordHash).
		Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Role, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
