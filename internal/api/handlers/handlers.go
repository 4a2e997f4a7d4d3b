package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bluecycle/bluecycle/internal/api/dto"
	"github.com/bluecycle/bluecycle/internal/api/middleware"
	"github.com/bluecycle/bluecycle/internal/domain/driver"
	"github.com/bluecycle/bluecycle/internal/domain/rating"
	"github.com/bluecycle/bluecycle/internal/domain/tracking"
	apperrors "github.com/bluecycle/bluecycle/pkg/errors"
	"github.com/bluecycle/bluecycle/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Monitor records business events emitted by the handlers
type Monitor interface {
	RecordLocationReported(pickupID, driverID int64)
	RecordLocationMiss()
	RecordRatingStored(driverID int64, stars int, duplicate bool)
}

// HealthCheck pings one backing service
type HealthCheck func(ctx context.Context) error

// StatsFunc reports runtime details of a backing service, such as pool usage
type StatsFunc func() map[string]interface{}

// Handlers holds all handler dependencies
type Handlers struct {
	Locations tracking.LocationStore
	Ratings   rating.Repository
	Drivers   driver.Repository
	Logger    *logger.Logger
	Monitor   Monitor
	Checks    map[string]HealthCheck
	Stats     map[string]StatsFunc
	Now       func() time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	locations tracking.LocationStore,
	ratings rating.Repository,
	drivers driver.Repository,
	log *logger.Logger,
	monitor Monitor,
) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{
		Locations: locations,
		Ratings:   ratings,
		Drivers:   drivers,
		Logger:    log,
		Monitor:   monitor,
		Checks:    map[string]HealthCheck{},
		Stats:     map[string]StatsFunc{},
		Now:       time.Now,
	}
}

func (h *Handlers) log(c *gin.Context) *logger.Logger {
	return h.Logger.With(logger.String("request_id", middleware.GetRequestID(c.Request.Context())))
}

func (h *Handlers) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// respondError writes err as {code, message} with its HTTP status
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.log(c).Error("Request failed",
			logger.String("path", c.FullPath()),
			logger.String("code", appErr.Code),
			logger.Err(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Status, dto.ErrorResponse{Code: appErr.Code, Message: appErr.Message})
}

// toAppError maps domain errors to their HTTP representation
func toAppError(err error) *apperrors.AppError {
	if apperrors.IsAppError(err) {
		return apperrors.GetAppError(err)
	}

	switch {
	case errors.Is(err, tracking.ErrLocationUnavailable):
		return apperrors.ErrPickupLocationNotFound
	case errors.Is(err, driver.ErrDriverNotFound):
		return apperrors.ErrDriverNotFound
	case errors.Is(err, tracking.ErrInvalidCoordinates):
		return apperrors.ErrInvalidCoordinates
	case errors.Is(err, tracking.ErrMissingTimestamp):
		return apperrors.ErrInvalidPayload
	case errors.Is(err, rating.ErrInvalidStars):
		return apperrors.ErrInvalidRating
	case errors.Is(err, rating.ErrInvalidPickupID), errors.Is(err, tracking.ErrInvalidPickupID):
		return apperrors.ErrInvalidPickupID
	case errors.Is(err, rating.ErrInvalidDriverID), errors.Is(err, driver.ErrInvalidDriverID):
		return apperrors.ErrInvalidDriverID
	case errors.Is(err, rating.ErrMissingRater):
		return apperrors.BadRequest("userId is required", err)
	}
	return apperrors.GetAppError(err)
}

// parseID reads a positive integer path parameter
func parseID(c *gin.Context, name string, invalid *apperrors.AppError) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid.WithCause(err)
	}
	return id, nil
}
