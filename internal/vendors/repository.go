package vendors

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expansio/backend/internal/models"
	"github.com/expansio/backend/internal/projects"
	"github.com/expansio/backend/pkg/errs"
)

// Repository handles vendor persistence and the vendor_services /
// vendor_countries associations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a vendors repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a vendor with its capabilities and country coverage.
func (r *Repository) Create(ctx context.Context, name string, rating *float64, slaHours *int, serviceNames, countries []string) (*models.Vendor, error) {
	const q = `INSERT INTO vendors (name, rating, response_sla_hours) VALUES ($1, $2, $3)
		RETURNING id, name, rating, response_sla_hours, created_at`
	var v models.Vendor
	err := r.pool.QueryRow(ctx, q, name, rating, slaHours).
		Scan(&v.ID, &v.Name, &v.Rating, &v.ResponseSLAHours, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := r.ReplaceServices(ctx, v.ID, serviceNames); err != nil {
		return nil, err
	}
	if err := r.ReplaceCountries(ctx, v.ID, countries); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, v.ID)
}

// GetByID returns a vendor with capabilities and coverage loaded.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Vendor, error) {
	const q = `SELECT id, name, rating, response_sla_hours, created_at FROM vendors WHERE id = $1`
	var v models.Vendor
	err := r.pool.QueryRow(ctx, q, id).Scan(&v.ID, &v.Name, &v.Rating, &v.ResponseSLAHours, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("vendor", id)
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadAssociations(ctx, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns vendors, optionally filtered by covered country and offered
// service name.
func (r *Repository) List(ctx context.Context, country, service string) ([]models.Vendor, error) {
	q := `SELECT DISTINCT v.id, v.name, v.rating, v.response_sla_hours, v.created_at FROM vendors v`
	var args []interface{}
	var where string
	if country != "" {
		q += ` JOIN vendor_countries vc ON vc.vendor_id = v.id`
		args = append(args, country)
		where = ` WHERE vc.country = $1`
	}
	if service != "" {
		q += ` JOIN vendor_services vs ON vs.vendor_id = v.id JOIN services s ON s.id = vs.service_id`
		args = append(args, service)
		if where == "" {
			where = ` WHERE s.name = $1`
		} else {
			where += ` AND s.name = $2`
		}
	}
	rows, err := r.pool.Query(ctx, q+where+` ORDER BY v.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Vendor
	for rows.Next() {
		var v models.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Rating, &v.ResponseSLAHours, &v.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		if err := r.loadAssociations(ctx, &list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// ListByCountry returns vendors whose coverage includes the country, each
// with its capability service ids loaded. This is the candidate set for
// match rebuilds.
func (r *Repository) ListByCountry(ctx context.Context, country string) ([]models.Vendor, error) {
	const q = `SELECT v.id, v.name, v.rating, v.response_sla_hours, v.created_at
		FROM vendors v
		JOIN vendor_countries vc ON vc.vendor_id = v.id
		WHERE vc.country = $1
		ORDER BY v.id`
	rows, err := r.pool.Query(ctx, q, country)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Vendor
	for rows.Next() {
		var v models.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Rating, &v.ResponseSLAHours, &v.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		ids, err := r.capabilityIDs(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].ServiceIDs = ids
	}
	return list, nil
}

// Update changes vendor fields. Nil pointers leave the field untouched.
func (r *Repository) Update(ctx context.Context, id int64, name *string, rating *float64, slaHours *int) error {
	const q = `UPDATE vendors SET
		name = COALESCE($1, name),
		rating = COALESCE($2, rating),
		response_sla_hours = COALESCE($3, response_sla_hours)
		WHERE id = $4`
	tag, err := r.pool.Exec(ctx, q, name, rating, slaHours, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("vendor", id)
	}
	return nil
}

// Delete removes a vendor; its matches and associations cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vendors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("vendor", id)
	}
	return nil
}

// ReplaceServices rewrites the vendor's capability set from service names.
func (r *Repository) ReplaceServices(ctx context.Context, vendorID int64, serviceNames []string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM vendor_services WHERE vendor_id = $1`, vendorID); err != nil {
		return err
	}
	ids, err := projects.FindOrCreateServices(ctx, r.pool, serviceNames)
	if err != nil {
		return err
	}
	for _, sid := range ids {
		const q = `INSERT INTO vendor_services (vendor_id, service_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := r.pool.Exec(ctx, q, vendorID, sid); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceCountries rewrites the vendor's coverage set.
func (r *Repository) ReplaceCountries(ctx context.Context, vendorID int64, countries []string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM vendor_countries WHERE vendor_id = $1`, vendorID); err != nil {
		return err
	}
	for _, country := range countries {
		if country == "" {
			continue
		}
		const q = `INSERT INTO vendor_countries (vendor_id, country) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := r.pool.Exec(ctx, q, vendorID, country); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) capabilityIDs(ctx context.Context, vendorID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT service_id FROM vendor_services WHERE vendor_id = $1 ORDER BY service_id`, vendorID)
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

func (r *Repository) loadAssociations(ctx context.Context, v *models.Vendor) error {
	ids, err := r.capabilityIDs(ctx, v.ID)
	if err != nil {
		return err
	}
	v.ServiceIDs = ids

	rows, err := r.pool.Query(ctx, `SELECT country FROM vendor_countries WHERE vendor_id = $1 ORDER BY country`, v.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var country string
		if err := rows.Scan(&country); err != nil {
			return err
		}
		v.Countries = append(v.Countries, country)
	}
	return rows.Err()
}
