package tracking

import (
	"context"
	"strconv"
	"time"

	"github.com/bluecycle/bluecycle/internal/domain/driver"
)

// DefaultPollInterval is the cadence at which a session refetches the driver location
const DefaultPollInterval = 5 * time.Second

// Status represents the location status of a tracking session
type Status string

const (
	StatusLoading     Status = "loading"
	StatusLive        Status = "live"
	StatusUnavailable Status = "unavailable"
)

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusLoading, StatusLive, StatusUnavailable:
		return true
	}
	return false
}

// Sample is one reported driver position. Coordinates travel as decimal
// strings so they are never rounded in transit.
type Sample struct {
	Latitude   string    `json:"latitude"`
	Longitude  string    `json:"longitude"`
	CapturedAt time.Time `json:"timestamp"`
}

// Coordinates parses the sample into decimal degrees
func (s Sample) Coordinates() (lat, lng float64, err error) {
	lat, err = strconv.ParseFloat(s.Latitude, 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, ErrInvalidCoordinates
	}
	lng, err = strconv.ParseFloat(s.Longitude, 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, ErrInvalidCoordinates
	}
	return lat, lng, nil
}

// Validate checks the coordinates and capture time
func (s Sample) Validate() error {
	if _, _, err := s.Coordinates(); err != nil {
		return err
	}
	if s.CapturedAt.IsZero() {
		return ErrMissingTimestamp
	}
	return nil
}

// Snapshot is the renderable state of a tracking session. The driver profile
// is always present; LastSample is nil until the first successful fetch.
type Snapshot struct {
	PickupID   int64          `json:"pickupId"`
	Driver     driver.Profile `json:"driver"`
	Status     Status         `json:"status"`
	LastSample *Sample        `json:"lastSample,omitempty"`
	Active     bool           `json:"active"`
}

// HasLocation reports whether a location block can be rendered
func (s Snapshot) HasLocation() bool {
	return s.LastSample != nil
}

// Age returns how old the displayed sample is relative to now
func (s Snapshot) Age(now time.Time) time.Duration {
	if s.LastSample == nil {
		return 0
	}
	return now.Sub(s.LastSample.CapturedAt)
}

// LocationFetcher reads the latest driver location for a pickup. It returns
// ErrLocationUnavailable when the source has no data yet.
type LocationFetcher interface {
	FetchLocation(ctx context.Context, pickupID int64) (*Sample, error)
}

// LocationStore keeps the latest driver location per pickup
type LocationStore interface {
	SaveLocation(ctx context.Context, pickupID, driverID int64, sample Sample) error
	LatestLocation(ctx context.Context, pickupID int64) (*Sample, error)
}
