package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bluecycle/bluecycle/internal/api/dto"
	"github.com/bluecycle/bluecycle/internal/domain/driver"
	"github.com/bluecycle/bluecycle/internal/domain/rating"
	"github.com/bluecycle/bluecycle/internal/domain/tracking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocationStore struct {
	mu      sync.Mutex
	samples map[int64]tracking.Sample
	drivers map[int64]int64
	err     error
}

func newFakeLocationStore() *fakeLocationStore {
	return &fakeLocationStore{samples: map[int64]tracking.Sample{}, drivers: map[int64]int64{}}
}

func (s *fakeLocationStore) SaveLocation(_ context.Context, pickupID, driverID int64, sample tracking.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.samples[pickupID] = sample
	s.drivers[pickupID] = driverID
	return nil
}

func (s *fakeLocationStore) LatestLocation(_ context.Context, pickupID int64) (*tracking.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	sample, ok := s.samples[pickupID]
	if !ok {
		return nil, tracking.ErrLocationUnavailable
	}
	return &sample, nil
}

// fakeRatingRepository mimics the unique (pickup_id, user_id) constraint
type fakeRatingRepository struct {
	mu     sync.Mutex
	byKey  map[[2]int64]int64
	stars  map[int64][]int
	nextID int64
	err    error
}

func newFakeRatingRepository() *fakeRatingRepository {
	return &fakeRatingRepository{byKey: map[[2]int64]int64{}, stars: map[int64][]int{}}
}

func (r *fakeRatingRepository) Create(_ context.Context, s rating.Submission) (*rating.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	key := [2]int64{s.PickupID, s.RaterUserID}
	result := &rating.Result{}
	if id, ok := r.byKey[key]; ok {
		result.RatingID = id
		result.Duplicate = true
	} else {
		r.nextID++
		r.byKey[key] = r.nextID
		r.stars[s.DriverID] = append(r.stars[s.DriverID], s.Stars)
		result.RatingID = r.nextID
	}

	var sum int
	for _, n := range r.stars[s.DriverID] {
		sum += n
	}
	result.AverageRating = float64(sum) / float64(len(r.stars[s.DriverID]))
	return result, nil
}

type fakeDriverRepository map[int64]driver.Profile

func (r fakeDriverRepository) GetProfile(_ context.Context, id int64) (*driver.Profile, error) {
	p, ok := r[id]
	if !ok {
		return nil, driver.ErrDriverNotFound
	}
	return &p, nil
}

type fakeMonitor struct {
	reported int
	misses   int
	ratings  []bool
}

func (m *fakeMonitor) RecordLocationReported(int64, int64) { m.reported++ }
func (m *fakeMonitor) RecordLocationMiss()                 { m.misses++ }
func (m *fakeMonitor) RecordRatingStored(_ int64, _ int, duplicate bool) {
	m.ratings = append(m.ratings, duplicate)
}

type testServer struct {
	locations *fakeLocationStore
	ratings   *fakeRatingRepository
	monitor   *fakeMonitor
	handlers  *Handlers
	router    *gin.Engine
}

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)

	s := &testServer{
		locations: newFakeLocationStore(),
		ratings:   newFakeRatingRepository(),
		monitor:   &fakeMonitor{},
	}
	drivers := fakeDriverRepository{
		7: {ID: 7, Name: "Budi Santoso", Phone: "+62 812 0000 0007", AverageRating: 4.8},
	}
	s.handlers = NewHandlers(s.locations, s.ratings, drivers, nil, s.monitor)
	s.handlers.Now = func() time.Time { return fixedNow }

	r := gin.New()
	r.GET("/health", s.handlers.Health)
	r.GET("/api/driver-location/:pickupId", s.handlers.GetDriverLocation)
	r.POST("/api/driver-location/:pickupId", s.handlers.ReportDriverLocation)
	r.POST("/api/driver-ratings", s.handlers.SubmitRating)
	r.GET("/api/drivers/:id", s.handlers.GetDriver)
	s.router = r
	return s
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetDriverLocation(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodGet, "/api/driver-location/42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)
	assert.Equal(t, 1, s.monitor.misses)

	s.locations.samples[42] = tracking.Sample{
		Latitude:   "-6.2",
		Longitude:  "106.8",
		CapturedAt: time.Date(2024, 6, 1, 8, 59, 55, 0, time.UTC),
	}

	w = s.do(http.MethodGet, "/api/driver-location/42", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"latitude":"-6.2","longitude":"106.8","timestamp":"2024-06-01T08:59:55Z"}`, w.Body.String())
}

func TestGetDriverLocation_InvalidPickupID(t *testing.T) {
	s := newTestServer()

	for _, id := range []string{"abc", "0", "-3"} {
		w := s.do(http.MethodGet, "/api/driver-location/"+id, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}
}

func TestGetDriverLocation_StoreDown(t *testing.T) {
	s := newTestServer()
	s.locations.err = errors.New("dial tcp: connection refused")

	w := s.do(http.MethodGet, "/api/driver-location/42", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 0, s.monitor.misses)
}

func TestReportDriverLocation(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodPost, "/api/driver-location/42", `{"driverId":7,"latitude":"-6.2","longitude":"106.8"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored := s.locations.samples[42]
	assert.Equal(t, "-6.2", stored.Latitude)
	assert.Equal(t, fixedNow, stored.CapturedAt)
	assert.Equal(t, int64(7), s.locations.drivers[42])
	assert.Equal(t, 1, s.monitor.reported)

	// the rider side reads back what the driver reported
	w = s.do(http.MethodGet, "/api/driver-location/42", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"timestamp":"2024-06-01T09:00:00Z"`)
}

func TestReportDriverLocation_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing driver", `{"latitude":"-6.2","longitude":"106.8"}`},
		{"non numeric latitude", `{"driverId":7,"latitude":"north","longitude":"106.8"}`},
		{"latitude out of range", `{"driverId":7,"latitude":"91","longitude":"106.8"}`},
		{"bad timestamp", `{"driverId":7,"latitude":"1","longitude":"2","timestamp":"later"}`},
		{"not json", `driverId=7`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			w := s.do(http.MethodPost, "/api/driver-location/42", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, s.locations.samples)
		})
	}
}

func TestSubmitRating(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodPost, "/api/driver-ratings", `{"pickupId":42,"driverId":7,"userId":3,"rating":4,"review":"Friendly"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.SubmitRatingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.SubmitRatingResponse{Status: "ok", RatingID: 1, AverageRating: 4}, resp)

	// same pickup and user again
	w = s.do(http.MethodPost, "/api/driver-ratings", `{"pickupId":42,"driverId":7,"userId":3,"rating":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Duplicate)
	assert.Equal(t, int64(1), resp.RatingID)
	assert.Equal(t, float64(4), resp.AverageRating)

	assert.Equal(t, []bool{false, true}, s.monitor.ratings)
}

func TestSubmitRating_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero stars", `{"pickupId":42,"driverId":7,"userId":3,"rating":0}`},
		{"six stars", `{"pickupId":42,"driverId":7,"userId":3,"rating":6}`},
		{"missing user", `{"pickupId":42,"driverId":7,"rating":5}`},
		{"missing pickup", `{"driverId":7,"userId":3,"rating":5}`},
		{"review too long", `{"pickupId":42,"driverId":7,"userId":3,"rating":5,"review":"` + strings.Repeat("x", 1001) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			w := s.do(http.MethodPost, "/api/driver-ratings", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "BAD_REQUEST", decodeError(t, w).Code)
			assert.Empty(t, s.monitor.ratings)
		})
	}
}

func TestSubmitRating_UnknownDriver(t *testing.T) {
	s := newTestServer()
	s.ratings.err = driver.ErrDriverNotFound

	w := s.do(http.MethodPost, "/api/driver-ratings", `{"pickupId":42,"driverId":99,"userId":3,"rating":5}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitRating_StoreFailure(t *testing.T) {
	s := newTestServer()
	s.ratings.err = errors.New("connection reset by peer")

	w := s.do(http.MethodPost, "/api/driver-ratings", `{"pickupId":42,"driverId":7,"userId":3,"rating":5}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestGetDriver(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodGet, "/api/drivers/7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"name":"Budi Santoso","phone":"+62 812 0000 0007","averageRating":4.8}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/drivers/8", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/drivers/x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	s.handlers.Checks["redis"] = func(context.Context) error { return nil }

	w := s.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","checks":{"redis":"up"}}`, w.Body.String())

	s.handlers.Checks["postgres"] = func(context.Context) error { return errors.New("down") }
	w = s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"postgres":"down"`)
}

func TestHealth_IncludesPoolDetails(t *testing.T) {
	s := newTestServer()
	s.handlers.Stats["redis_pool"] = func() map[string]interface{} {
		return map[string]interface{}{"total_conns": 3, "idle_conns": 2}
	}

	w := s.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","checks":{},"details":{"redis_pool":{"total_conns":3,"idle_conns":2}}}`, w.Body.String())
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{tracking.ErrLocationUnavailable, http.StatusNotFound},
		{driver.ErrDriverNotFound, http.StatusNotFound},
		{tracking.ErrInvalidCoordinates, http.StatusBadRequest},
		{rating.ErrInvalidStars, http.StatusBadRequest},
		{rating.ErrMissingRater, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, toAppError(tt.err).Status, tt.err.Error())
	}
}
