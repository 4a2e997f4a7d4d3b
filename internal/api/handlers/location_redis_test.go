package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	locationstore "github.com/bluecycle/bluecycle/internal/storage/redis"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisBackedServer(t *testing.T, ttl time.Duration) (*testServer, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := &testServer{monitor: &fakeMonitor{}}
	s.handlers = NewHandlers(locationstore.NewLocationStore(client, ttl), newFakeRatingRepository(), fakeDriverRepository{}, nil, s.monitor)
	s.handlers.Now = func() time.Time { return fixedNow }

	r := gin.New()
	r.GET("/api/driver-location/:pickupId", s.handlers.GetDriverLocation)
	r.POST("/api/driver-location/:pickupId", s.handlers.ReportDriverLocation)
	s.router = r
	return s, mr
}

func TestDriverLocation_RedisStore(t *testing.T) {
	s, _ := newRedisBackedServer(t, time.Minute)

	w := s.do(http.MethodGet, "/api/driver-location/42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)
	assert.Equal(t, 1, s.monitor.misses)

	w = s.do(http.MethodPost, "/api/driver-location/42", `{"driverId":7,"latitude":"-6.2","longitude":"106.8"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/driver-location/42", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"latitude":"-6.2","longitude":"106.8","timestamp":"2024-06-01T09:00:00Z"}`, w.Body.String())
}

func TestDriverLocation_RedisStoreExpired(t *testing.T) {
	s, mr := newRedisBackedServer(t, 10*time.Second)

	w := s.do(http.MethodPost, "/api/driver-location/42", `{"driverId":7,"latitude":"-6.2","longitude":"106.8"}`)
	require.Equal(t, http.StatusOK, w.Code)

	mr.FastForward(11 * time.Second)

	w = s.do(http.MethodGet, "/api/driver-location/42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDriverLocation_RedisDown(t *testing.T) {
	s, mr := newRedisBackedServer(t, time.Minute)
	mr.Close()

	w := s.do(http.MethodGet, "/api/driver-location/42", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 0, s.monitor.misses)
}
