package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bluecycle/bluecycle/internal/domain/tracking"
	goredis "github.com/redis/go-redis/v9"
)

// LocationKey returns the key holding the latest driver location of a pickup
func LocationKey(pickupID int64) string {
	return fmt.Sprintf("pickup:%d:driver_location", pickupID)
}

// storedLocation is the value written under LocationKey
type storedLocation struct {
	DriverID  int64  `json:"driverId"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Timestamp string `json:"timestamp"`
}

// LocationStore keeps the latest driver location per pickup in Redis. Each
// value expires after ttl so an abandoned pickup stops reporting a position.
type LocationStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewLocationStore creates a Redis backed location store
func NewLocationStore(client goredis.UniversalClient, ttl time.Duration) *LocationStore {
	return &LocationStore{client: client, ttl: ttl}
}

// SaveLocation replaces the latest sample for the pickup and resets its TTL
func (s *LocationStore) SaveLocation(ctx context.Context, pickupID, driverID int64, sample tracking.Sample) error {
	if err := sample.Validate(); err != nil {
		return err
	}
	payload, err := encodeLocation(driverID, sample)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, LocationKey(pickupID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save location for pickup %d: %w", pickupID, err)
	}
	return nil
}

// LatestLocation returns the most recent sample for the pickup or
// tracking.ErrLocationUnavailable when none is cached.
func (s *LocationStore) LatestLocation(ctx context.Context, pickupID int64) (*tracking.Sample, error) {
	raw, err := s.client.Get(ctx, LocationKey(pickupID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, tracking.ErrLocationUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("read location for pickup %d: %w", pickupID, err)
	}
	return decodeLocation(raw)
}

func encodeLocation(driverID int64, sample tracking.Sample) ([]byte, error) {
	return json.Marshal(storedLocation{
		DriverID:  driverID,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Timestamp: sample.CapturedAt.UTC().Format(time.RFC3339Nano),
	})
}

func decodeLocation(raw []byte) (*tracking.Sample, error) {
	var stored storedLocation
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode stored location: %w", err)
	}
	capturedAt, err := time.Parse(time.RFC3339Nano, stored.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("decode stored location timestamp: %w", err)
	}
	return &tracking.Sample{
		Latitude:   stored.Latitude,
		Longitude:  stored.Longitude,
		CapturedAt: capturedAt,
	}, nil
}
