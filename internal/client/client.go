package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bluecycle/bluecycle/internal/api/dto"
	"github.com/bluecycle/bluecycle/internal/domain/driver"
	"github.com/bluecycle/bluecycle/internal/domain/rating"
	"github.com/bluecycle/bluecycle/internal/domain/tracking"
	"github.com/bluecycle/bluecycle/pkg/logger"
)

// maxErrorBody bounds how much of an error body is read into messages
const maxErrorBody = 4 << 10

// Config holds API client configuration
type Config struct {
	BaseURL string
	// Timeout bounds every request. Per-call contexts may be shorter.
	Timeout time.Duration
}

// Client talks to the BlueCycle REST API
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *logger.Logger
}

// StatusError is returned for an unexpected HTTP status
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// New creates a new API client
func New(cfg Config, log *logger.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log.Named("api-client"),
	}, nil
}

// FetchLocation implements tracking.LocationFetcher. Any non-200 answer is a
// soft miss reported as tracking.ErrLocationUnavailable.
func (c *Client) FetchLocation(ctx context.Context, pickupID int64) (*tracking.Sample, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/driver-location/"+strconv.FormatInt(pickupID, 10), nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", tracking.ErrLocationUnavailable, resp.StatusCode)
	}

	var body dto.DriverLocationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode driver location: %w", err)
	}
	sample, err := body.ToSample()
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

// SubmitRating implements rating.Writer. Only 2xx answers count as success.
func (c *Client) SubmitRating(ctx context.Context, s rating.Submission) (*rating.Result, error) {
	payload, err := json.Marshal(dto.FromSubmission(s))
	if err != nil {
		return nil, fmt.Errorf("encode rating: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/driver-ratings", payload)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %w", rating.ErrSubmissionRejected, statusError(resp))
	}

	var body dto.SubmitRatingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && err != io.EOF {
		c.logger.Warn("Ignoring undecodable rating acknowledgement", logger.Err(err))
	}
	return &rating.Result{
		RatingID:      body.RatingID,
		AverageRating: body.AverageRating,
		Duplicate:     body.Duplicate,
	}, nil
}

// GetProfile implements driver.Repository over the API
func (c *Client) GetProfile(ctx context.Context, id int64) (*driver.Profile, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/drivers/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, driver.ErrDriverNotFound
	default:
		return nil, statusError(resp)
	}

	var body dto.DriverProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode driver profile: %w", err)
	}
	profile := body.ToProfile()
	return &profile, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.logger.Debug("API request completed",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("latency", time.Since(started)),
	)
	return resp, nil
}

func statusError(resp *http.Response) *StatusError {
	e := &StatusError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body dto.ErrorResponse
	if json.Unmarshal(raw, &body) == nil {
		e.Code = body.Code
		e.Message = body.Message
	}
	return e
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
