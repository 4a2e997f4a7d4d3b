package monitoring

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

// NewRelicApp wraps the New Relic application. A disabled app accepts every
// call and records nothing.
type NewRelicApp struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic application
func New(cfg Config) (*NewRelicApp, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return Disabled(), nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &NewRelicApp{app, true}, nil
}

// Disabled returns an app that records nothing
func Disabled() *NewRelicApp {
	return &NewRelicApp{nil, false}
}

// IsEnabled returns whether New Relic is enabled
func (nr *NewRelicApp) IsEnabled() bool {
	return nr != nil && nr.enabled && nr.Application != nil
}

// RecordCustomEvent records a custom event
func (nr *NewRelicApp) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.RecordCustomEvent(eventType, params)
}

// RecordCustomMetric records a custom metric
func (nr *NewRelicApp) RecordCustomMetric(name string, value float64) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.RecordCustomMetric(name, value)
}

// Shutdown gracefully shuts down the New Relic application
func (nr *NewRelicApp) Shutdown(timeout time.Duration) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.Shutdown(timeout)
}

// RecordLocationReported records a driver position report for a pickup
func (nr *NewRelicApp) RecordLocationReported(pickupID, driverID int64) {
	nr.RecordCustomEvent("DriverLocationReported", map[string]interface{}{
		"pickup_id": pickupID,
		"driver_id": driverID,
	})
}

// RecordLocationMiss counts location reads that found no cached sample
func (nr *NewRelicApp) RecordLocationMiss() {
	nr.RecordCustomMetric("custom/tracking/location_miss", 1)
}

// RecordRatingStored records a rating accepted by the ratings endpoint
func (nr *NewRelicApp) RecordRatingStored(driverID int64, stars int, duplicate bool) {
	nr.RecordCustomEvent("DriverRatingSubmitted", map[string]interface{}{
		"driver_id": driverID,
		"rating":    stars,
		"duplicate": duplicate,
		"timestamp": time.Now().Unix(),
	})
}

// RecordRatingSubmission records a client-side rating submission outcome
func (nr *NewRelicApp) RecordRatingSubmission(stars int, succeeded bool) {
	status := "failed"
	if succeeded {
		status = "succeeded"
	}
	nr.RecordCustomMetric(fmt.Sprintf("custom/rating/submission/%s", status), float64(stars))
}
