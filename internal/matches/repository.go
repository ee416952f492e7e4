package matches

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expansio/backend/internal/models"
)

// Repository handles match persistence. The matches table carries a
// uniqueness constraint on (project_id, vendor_id); that constraint, not
// application ordering, is what keeps concurrent rebuilds of the same
// project from producing duplicate rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a matches repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert writes the score for one (project, vendor) pair atomically: a new
// pair inserts, an existing pair overwrites score in place with id and
// created_at untouched. The returned bool reports whether the row was newly
// created; callers use it for notification eligibility.
func (r *Repository) Upsert(ctx context.Context, projectID, vendorID int64, score float64) (*models.Match, bool, error) {
	// xmax = 0 only on freshly inserted rows, which distinguishes the
	// insert arm from the conflict-update arm in one round trip.
	const q = `INSERT INTO matches (project_id, vendor_id, score) VALUES ($1, $2, $3)
		ON CONFLICT (project_id, vendor_id) DO UPDATE SET score = EXCLUDED.score
		RETURNING id, project_id, vendor_id, score, created_at, (xmax = 0)`
	var m models.Match
	var created bool
	err := r.pool.QueryRow(ctx, q, projectID, vendorID, score).
		Scan(&m.ID, &m.ProjectID, &m.VendorID, &m.Score, &m.CreatedAt, &created)
	if err != nil {
		return nil, false, err
	}
	return &m, created, nil
}

// ListByProject returns all matches for one project, best score first.
func (r *Repository) ListByProject(ctx context.Context, projectID int64) ([]models.Match, error) {
	const q = `SELECT id, project_id, vendor_id, score, created_at FROM matches
		WHERE project_id = $1 ORDER BY score DESC, vendor_id`
	rows, err := r.pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Match
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.VendorID, &m.Score, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// DeleteByProject removes all matches for a project. Used when the
// project's country or required services change.
func (r *Repository) DeleteByProject(ctx context.Context, projectID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM matches WHERE project_id = $1`, projectID)
	return err
}
