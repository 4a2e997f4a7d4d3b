package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bluecycle/bluecycle/internal/domain/driver"
	"github.com/bluecycle/bluecycle/internal/domain/rating"
	"github.com/lib/pq"
)

const (
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

const (
	insertRatingQuery = `
		INSERT INTO driver_ratings (pickup_id, driver_id, user_id, rating, review)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (pickup_id, user_id) DO NOTHING
		RETURNING id`

	existingRatingQuery = `
		SELECT id FROM driver_ratings
		WHERE pickup_id = $1 AND user_id = $2`

	refreshAverageQuery = `
		UPDATE drivers
		SET average_rating = (
			SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0)
			FROM driver_ratings
			WHERE driver_id = $1
		),
		updated_at = NOW()
		WHERE id = $1
		RETURNING average_rating`
)

// RatingRepository stores driver ratings in PostgreSQL
type RatingRepository struct {
	db *sql.DB
}

// NewRatingRepository creates a rating repository
func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Create stores the rating and recomputes the driver's average in one
// transaction. A repeated rating for the same pickup and user keeps the
// original row and is reported as a duplicate.
func (r *RatingRepository) Create(ctx context.Context, s rating.Submission) (*rating.Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rating transaction: %w", err)
	}
	defer tx.Rollback()

	result := &rating.Result{}
	err = tx.QueryRowContext(ctx, insertRatingQuery,
		s.PickupID, s.DriverID, s.RaterUserID, s.Stars, s.Review,
	).Scan(&result.RatingID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		result.Duplicate = true
		if err := tx.QueryRowContext(ctx, existingRatingQuery, s.PickupID, s.RaterUserID).Scan(&result.RatingID); err != nil {
			return nil, fmt.Errorf("load existing rating: %w", err)
		}
	case err != nil:
		return nil, mapRatingError(err)
	}

	if err := tx.QueryRowContext(ctx, refreshAverageQuery, s.DriverID).Scan(&result.AverageRating); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, driver.ErrDriverNotFound
		}
		return nil, fmt.Errorf("refresh driver average: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rating: %w", err)
	}
	return result, nil
}

func mapRatingError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			return driver.ErrDriverNotFound
		case pqCheckViolation:
			return rating.ErrInvalidStars
		}
	}
	return fmt.Errorf("insert rating: %w", err)
}
