package rating

import "context"

const (
	MinStars     = 1
	MaxStars     = 5
	DefaultStars = MaxStars
)

// Status represents the state of a rating dialog
type Status string

const (
	StatusEditing    Status = "editing"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Submission is one driver rating as sent to the ratings endpoint
type Submission struct {
	PickupID    int64   `json:"pickupId"`
	DriverID    int64   `json:"driverId"`
	RaterUserID int64   `json:"userId"`
	Stars       int     `json:"rating"`
	Review      *string `json:"review,omitempty"`
}

// ValidStars reports whether n is a selectable star value
func ValidStars(n int) bool {
	return n >= MinStars && n <= MaxStars
}

// NormalizeReview turns an empty review into an absent one. Any other text,
// whitespace included, is sent as typed.
func NormalizeReview(review string) *string {
	if review == "" {
		return nil
	}
	return &review
}

// Validate validates the submission before any network call
func (s *Submission) Validate() error {
	if !ValidStars(s.Stars) {
		return ErrInvalidStars
	}
	if s.PickupID <= 0 {
		return ErrInvalidPickupID
	}
	if s.DriverID <= 0 {
		return ErrInvalidDriverID
	}
	if s.RaterUserID <= 0 {
		return ErrMissingRater
	}
	return nil
}

// Result is the endpoint's acknowledgement of a stored rating
type Result struct {
	RatingID      int64   `json:"ratingId"`
	AverageRating float64 `json:"averageRating"`
	Duplicate     bool    `json:"duplicate"`
}

// Writer submits ratings to the ratings endpoint
type Writer interface {
	SubmitRating(ctx context.Context, s Submission) (*Result, error)
}

// Repository persists ratings and maintains the driver's average
type Repository interface {
	// Create stores the rating and recomputes the driver's average rating.
	// A second rating for the same pickup by the same user is not stored again;
	// the existing one is reported with Duplicate set.
	Create(ctx context.Context, s Submission) (*Result, error)
}
