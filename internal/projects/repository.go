package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expansio/backend/internal/models"
	"github.com/expansio/backend/pkg/errs"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// Repository handles project persistence and the project_services association.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a projects repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a project for the owning client and associates its
// required services by name (services are created on first use).
func (r *Repository) Create(ctx context.Context, clientID int64, country string, budget *float64, status string, serviceNames []string) (*models.Project, error) {
	if status == "" {
		status = models.ProjectStatusActive
	}
	const q = `INSERT INTO projects (client_id, country, budget, status) VALUES ($1, $2, $3, $4)
		RETURNING id, client_id, country, budget, status, created_at`
	var p models.Project
	err := r.pool.QueryRow(ctx, q, clientID, country, budget, status).
		Scan(&p.ID, &p.ClientID, &p.Country, &p.Budget, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := r.ReplaceServices(ctx, p.ID, serviceNames); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, p.ID)
}

// GetByID returns a project with its required services loaded.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	const q = `SELECT id, client_id, country, budget, status, created_at FROM projects WHERE id = $1`
	var p models.Project
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.ClientID, &p.Country, &p.Budget, &p.Status, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("project", id)
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadServices(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns projects, optionally restricted to one owning client.
func (r *Repository) List(ctx context.Context, clientID *int64) ([]models.Project, error) {
	base := `SELECT id, client_id, country, budget, status, created_at FROM projects`
	var args []interface{}
	if clientID != nil {
		base += ` WHERE client_id = $1`
		args = append(args, *clientID)
	}
	rows, err := r.pool.Query(ctx, base+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Country, &p.Budget, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		if err := r.loadServices(ctx, &list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Update changes project fields. Nil pointers leave the field untouched.
func (r *Repository) Update(ctx context.Context, id int64, country *string, budget *float64, status *string) error {
	const q = `UPDATE projects SET
		country = COALESCE($1, country),
		budget = COALESCE($2, budget),
		status = COALESCE($3, status)
		WHERE id = $4`
	tag, err := r.pool.Exec(ctx, q, country, budget, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("project", id)
	}
	return nil
}

// Delete removes a project; its matches and service associations cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("project", id)
	}
	return nil
}

// ReplaceServices rewrites the project's required-service set from names.
func (r *Repository) ReplaceServices(ctx context.Context, projectID int64, serviceNames []string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM project_services WHERE project_id = $1`, projectID); err != nil {
		return err
	}
	ids, err := FindOrCreateServices(ctx, r.pool, serviceNames)
	if err != nil {
		return err
	}
	for _, sid := range ids {
		const q = `INSERT INTO project_services (project_id, service_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := r.pool.Exec(ctx, q, projectID, sid); err != nil {
			return err
		}
	}
	return nil
}

// OwnedProjectIDs returns the ids of projects owned by the client. This is
// the resolution step behind every non-admin scoped query.
func (r *Repository) OwnedProjectIDs(ctx context.Context, clientID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM projects WHERE client_id = $1`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListActiveIDs returns the ids of all active projects, for the scheduled
// rebuild.
func (r *Repository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM projects WHERE status = $1 ORDER BY id`, models.ProjectStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ProjectExists reports whether a project row exists, used by the
// cross-store consistency check.
func (r *Repository) ProjectExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *Repository) loadServices(ctx context.Context, p *models.Project) error {
	const q = `SELECT s.id, s.name FROM services s
		JOIN project_services ps ON ps.service_id = s.id
		WHERE ps.project_id = $1 ORDER BY s.id`
	rows, err := r.pool.Query(ctx, q, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return err
		}
		p.Services = append(p.Services, s)
		p.ServiceIDs = append(p.ServiceIDs, s.ID)
	}
	return rows.Err()
}

// FindOrCreateServices resolves service names to ids, creating missing ones.
// A concurrent insert of the same name surfaces as a unique violation; the
// lookup is retried once.
func FindOrCreateServices(ctx context.Context, pool *pgxpool.Pool, names []string) ([]int64, error) {
	var ids []int64
	for _, name := range names {
		if name == "" {
			continue
		}
		id, err := findOrCreateService(ctx, pool, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func findOrCreateService(ctx context.Context, pool *pgxpool.Pool, name string) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, `SELECT id FROM services WHERE name = $1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	err = pool.QueryRow(ctx, `INSERT INTO services (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		// Lost the insert race; the row exists now.
		if err := pool.QueryRow(ctx, `SELECT id FROM services WHERE name = $1`, name).Scan(&id); err != nil {
			return 0, fmt.Errorf("service %q after conflict: %w", name, err)
		}
		return id, nil
	}
	return 0, err
}
