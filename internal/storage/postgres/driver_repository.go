package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bluecycle/bluecycle/internal/domain/driver"
)

// DriverRepository reads driver profiles from PostgreSQL
type DriverRepository struct {
	db *sql.DB
}

// NewDriverRepository creates a driver repository
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{db: db}
}

// GetProfile returns the driver profile shown next to a tracked pickup
func (r *DriverRepository) GetProfile(ctx context.Context, id int64) (*driver.Profile, error) {
	if id <= 0 {
		return nil, driver.ErrInvalidDriverID
	}

	var p driver.Profile
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, phone, average_rating
		FROM drivers
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Phone, &p.AverageRating)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, driver.ErrDriverNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get driver %d: %w", id, err)
	}
	return &p, nil
}
