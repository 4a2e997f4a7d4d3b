package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/bluecycle/bluecycle/internal/domain/driver"
	"github.com/bluecycle/bluecycle/internal/domain/rating"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestMapRatingError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unknown driver", &pq.Error{Code: pqForeignKeyViolation}, driver.ErrDriverNotFound},
		{"rating out of range", &pq.Error{Code: pqCheckViolation}, rating.ErrInvalidStars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapRatingError(tt.err), tt.want)
		})
	}

	other := errors.New("connection reset")
	assert.ErrorIs(t, mapRatingError(other), other)
}

func TestRatingRepository_ValidatesBeforeQuerying(t *testing.T) {
	// a nil db would panic if the submission reached it
	repo := NewRatingRepository(nil)

	_, err := repo.Create(context.Background(), rating.Submission{PickupID: 1, DriverID: 1, RaterUserID: 1, Stars: 0})
	assert.ErrorIs(t, err, rating.ErrInvalidStars)

	_, err = repo.Create(context.Background(), rating.Submission{PickupID: 0, DriverID: 1, RaterUserID: 1, Stars: 5})
	assert.ErrorIs(t, err, rating.ErrInvalidPickupID)
}

func TestDriverRepository_RejectsInvalidID(t *testing.T) {
	repo := NewDriverRepository(nil)
	_, err := repo.GetProfile(context.Background(), 0)
	assert.ErrorIs(t, err, driver.ErrInvalidDriverID)
}

func TestSchemaDeclaresUniqueRatingPerPickupAndUser(t *testing.T) {
	assert.Contains(t, Schema, "UNIQUE (pickup_id, user_id)")
}
