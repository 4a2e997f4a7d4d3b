package dto

import (
	"fmt"
	"time"

	"github.com/bluecycle/bluecycle/internal/domain/driver"
	"github.com/bluecycle/bluecycle/internal/domain/rating"
	"github.com/bluecycle/bluecycle/internal/domain/tracking"
)

// DriverLocationResponse is the body of GET /api/driver-location/:pickupId
type DriverLocationResponse struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Timestamp string `json:"timestamp"`
}

// ReportLocationRequest is a driver position update for a pickup
type ReportLocationRequest struct {
	DriverID  int64  `json:"driverId" binding:"required,gt=0"`
	Latitude  string `json:"latitude" binding:"required,numeric"`
	Longitude string `json:"longitude" binding:"required,numeric"`
	Timestamp string `json:"timestamp,omitempty"`
}

// SubmitRatingRequest is the body of POST /api/driver-ratings
type SubmitRatingRequest struct {
	PickupID int64   `json:"pickupId" binding:"required,gt=0"`
	DriverID int64   `json:"driverId" binding:"required,gt=0"`
	UserID   int64   `json:"userId" binding:"required,gt=0"`
	Rating   int     `json:"rating" binding:"required,min=1,max=5"`
	Review   *string `json:"review,omitempty" binding:"omitempty,max=1000"`
}

// SubmitRatingResponse acknowledges a stored rating
type SubmitRatingResponse struct {
	Status        string  `json:"status"`
	RatingID      int64   `json:"ratingId"`
	AverageRating float64 `json:"averageRating"`
	Duplicate     bool    `json:"duplicate"`
}

// DriverProfileResponse is the body of GET /api/drivers/:id
type DriverProfileResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Phone         string  `json:"phone"`
	AverageRating float64 `json:"averageRating"`
}

// ErrorResponse is returned for every non-2xx answer
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FromSample converts a sample to its wire form
func FromSample(s tracking.Sample) DriverLocationResponse {
	return DriverLocationResponse{
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Timestamp: s.CapturedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ToSample parses the wire form into a sample
func (r DriverLocationResponse) ToSample() (tracking.Sample, error) {
	capturedAt, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return tracking.Sample{}, fmt.Errorf("parse timestamp %q: %w", r.Timestamp, err)
	}
	return tracking.Sample{
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		CapturedAt: capturedAt,
	}, nil
}

// ToSample builds a sample from a location report, stamping now when the
// driver app sent no timestamp.
func (r ReportLocationRequest) ToSample(now time.Time) (tracking.Sample, error) {
	capturedAt := now.UTC()
	if r.Timestamp != "" {
		t, err := time.Parse(time.RFC3339Nano, r.Timestamp)
		if err != nil {
			return tracking.Sample{}, fmt.Errorf("parse timestamp %q: %w", r.Timestamp, err)
		}
		capturedAt = t
	}
	s := tracking.Sample{Latitude: r.Latitude, Longitude: r.Longitude, CapturedAt: capturedAt}
	return s, s.Validate()
}

// FromSubmission converts a submission to its wire form
func FromSubmission(s rating.Submission) SubmitRatingRequest {
	return SubmitRatingRequest{
		PickupID: s.PickupID,
		DriverID: s.DriverID,
		UserID:   s.RaterUserID,
		Rating:   s.Stars,
		Review:   s.Review,
	}
}

// ToSubmission converts the request into a domain submission
func (r SubmitRatingRequest) ToSubmission() rating.Submission {
	var review *string
	if r.Review != nil {
		review = rating.NormalizeReview(*r.Review)
	}
	return rating.Submission{
		PickupID:    r.PickupID,
		DriverID:    r.DriverID,
		RaterUserID: r.UserID,
		Stars:       r.Rating,
		Review:      review,
	}
}

// FromProfile converts a driver profile to its wire form
func FromProfile(p driver.Profile) DriverProfileResponse {
	return DriverProfileResponse{
		ID:            p.ID,
		Name:          p.Name,
		Phone:         p.Phone,
		AverageRating: p.AverageRating,
	}
}

// ToProfile converts the wire form into a driver profile
func (r DriverProfileResponse) ToProfile() driver.Profile {
	return driver.Profile{
		ID:            r.ID,
		Name:          r.Name,
		Phone:         r.Phone,
		AverageRating: r.AverageRating,
	}
}
