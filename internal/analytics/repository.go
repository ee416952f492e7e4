package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TopVendor is one row of the top-vendors-per-country report.
type TopVendor struct {
	Country          string  `json:"country"`
	VendorID         int64   `json:"vendor_id"`
	VendorName       string  `json:"vendor_name"`
	AvgScore         float64 `json:"avg_score"`
	MatchCount       int64   `json:"match_count"`
	ResearchDocCount int64   `json:"research_docs_count"`
}

// Repository runs the analytics aggregates over the relational store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an analytics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TopVendorsPerCountry returns the top 3 vendors per covered country by
// average match score over the window.
func (r *Repository) TopVendorsPerCountry(ctx context.Context, since time.Time) ([]TopVendor, error) {
	const q = `SELECT country, vendor_id, vendor_name, avg_score, match_count FROM (
			SELECT vc.country,
				v.id AS vendor_id,
				v.name AS vendor_name,
				AVG(m.score) AS avg_score,
				COUNT(m.id) AS match_count,
				ROW_NUMBER() OVER (PARTITION BY vc.country ORDER BY AVG(m.score) DESC) AS rank
			FROM matches m
			JOIN vendors v ON v.id = m.vendor_id
			JOIN vendor_countries vc ON vc.vendor_id = v.id
			WHERE m.created_at >= $1
			GROUP BY vc.country, v.id, v.name
		) ranked
		WHERE rank <= 3
		ORDER BY country, avg_score DESC`
	rows, err := r.pool.Query(ctx, q, since)
	if err != nil {
		return nil, fmt.Errorf("top vendors query: %w", err)
	}
	defer rows.Close()

	var list []TopVendor
	for rows.Next() {
		var tv TopVendor
		if err := rows.Scan(&tv.Country, &tv.VendorID, &tv.VendorName, &tv.AvgScore, &tv.MatchCount); err != nil {
			return nil, err
		}
		list = append(list, tv)
	}
	return list, rows.Err()
}

// ProjectIDsByCountry returns the string-form ids of projects in a country,
// for joining against the document store.
func (r *Repository) ProjectIDsByCountry(ctx context.Context, country string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM projects WHERE country = $1`, country)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	return ids, rows.Err()
}
