package driver

import (
	"context"
	"strings"
)

// MaxRating is the upper bound of a driver's average rating
const MaxRating = 5.0

// Profile is the static driver identity shown next to a tracked pickup
type Profile struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Phone         string  `json:"phone"`
	AverageRating float64 `json:"averageRating"`
}

// IsValid validates the profile
func (p *Profile) IsValid() error {
	if p.ID <= 0 {
		return ErrInvalidDriverID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidDriverName
	}
	if p.AverageRating < 0 || p.AverageRating > MaxRating {
		return ErrInvalidAverageRating
	}
	return nil
}

// Repository defines driver profile lookups
type Repository interface {
	// GetProfile retrieves a driver's profile including the current average rating
	GetProfile(ctx context.Context, id int64) (*Profile, error)
}
