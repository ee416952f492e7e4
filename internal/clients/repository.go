package clients

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expansio/backend/internal/models"
	"github.com/expansio/backend/pkg/errs"
)

// Repository handles client persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a clients repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all clients, oldest first.
func (r *Repository) List(ctx context.Context) ([]models.Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, email, role, created_at FROM clients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Role, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// GetByID returns a client by ID without the password hash.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	const q = `SELECT id, name, email, role, created_at FROM clients WHERE id = $1`
	var c models.Client
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Email, &c.Role, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("client", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Update changes a client's profile fields.
func (r *Repository) Update(ctx context.Context, id int64, name, email string) error {
	const q = `UPDATE clients SET name = COALESCE(NULLIF($1,''), name), email = COALESCE(NULLIF($2,''), email) WHERE id = $3`
	tag, err := r.pool.Exec(ctx, q, name, email, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("client", id)
	}
	return nil
}

// UpdateRole changes a client's role. Administrative action only.
func (r *Repository) UpdateRole(ctx context.Context, id int64, role string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE clients SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("client", id)
	}
	return nil
}

// Delete removes a client; owned projects and their matches cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("client", id)
	}
	return nil
}
