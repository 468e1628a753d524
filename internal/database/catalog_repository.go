package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
)

const packageColumns = `package_id, package_name, price, duration, destination_id, accommodation_id, status`

// CatalogRepository reads packages and the tour links used to match them
type CatalogRepository struct {
	db sqlx.ExtContext
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db sqlx.ExtContext) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *CatalogRepository) WithTx(tx *sqlx.Tx) *CatalogRepository {
	return &CatalogRepository{db: tx}
}

// GetPackage retrieves a package by id
func (r *CatalogRepository) GetPackage(ctx context.Context, id int64) (*models.Package, error) {
	var p models.Package
	query := `SELECT ` + packageColumns + ` FROM packages WHERE package_id = $1`
	if err := sqlx.GetContext(ctx, r.db, &p, query, id); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// GetTourLinks returns the destination and accommodation ids linked to a tour
func (r *CatalogRepository) GetTourLinks(ctx context.Context, tourID int64) (*models.TourLinks, error) {
	links := &models.TourLinks{TourID: tourID, DestinationIDs: []int64{}, AccommodationIDs: []int64{}}

	err := sqlx.SelectContext(ctx, r.db, &links.DestinationIDs,
		`SELECT destination_id FROM tour_destinations WHERE tour_id = $1 ORDER BY destination_id`, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tour destinations: %w", err)
	}

	err = sqlx.SelectContext(ctx, r.db, &links.AccommodationIDs,
		`SELECT accommodation_id FROM tour_accommodations WHERE tour_id = $1 ORDER BY accommodation_id`, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tour accommodations: %w", err)
	}

	return links, nil
}

// FindPackagesByLinks returns packages whose destination and accommodation are both in the given sets,
// cheapest first with package id breaking ties
func (r *CatalogRepository) FindPackagesByLinks(ctx context.Context, destinationIDs, accommodationIDs []int64) ([]models.Package, error) {
	packages := []models.Package{}
	if len(destinationIDs) == 0 || len(accommodationIDs) == 0 {
		return packages, nil
	}

	query := `
		SELECT ` + packageColumns + `
		FROM packages
		WHERE destination_id = ANY($1) AND accommodation_id = ANY($2)
		ORDER BY price ASC, package_id ASC
	`
	err := sqlx.SelectContext(ctx, r.db, &packages, query,
		pq.Array(destinationIDs), pq.Array(accommodationIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to find packages for tour: %w", err)
	}
	return packages, nil
}
