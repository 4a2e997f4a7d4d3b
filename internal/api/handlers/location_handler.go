package handlers

import (
	"errors"
	"net/http"

	"github.com/bluecycle/bluecycle/internal/api/dto"
	"github.com/bluecycle/bluecycle/internal/domain/tracking"
	apperrors "github.com/bluecycle/bluecycle/pkg/errors"
	"github.com/bluecycle/bluecycle/pkg/logger"
	"github.com/gin-gonic/gin"
)

// GetDriverLocation handles GET /api/driver-location/:pickupId
func (h *Handlers) GetDriverLocation(c *gin.Context) {
	pickupID, err := parseID(c, "pickupId", apperrors.ErrInvalidPickupID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sample, err := h.Locations.LatestLocation(c.Request.Context(), pickupID)
	switch {
	case errors.Is(err, tracking.ErrLocationUnavailable):
		if h.Monitor != nil {
			h.Monitor.RecordLocationMiss()
		}
		h.respondError(c, err)
		return
	case err != nil:
		h.respondError(c, apperrors.ErrLocationStoreUnavailable.WithCause(err))
		return
	}

	c.JSON(http.StatusOK, dto.FromSample(*sample))
}

// ReportDriverLocation handles POST /api/driver-location/:pickupId
func (h *Handlers) ReportDriverLocation(c *gin.Context) {
	pickupID, err := parseID(c, "pickupId", apperrors.ErrInvalidPickupID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req dto.ReportLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.ErrInvalidPayload.WithCause(err))
		return
	}

	sample, err := req.ToSample(h.now())
	if err != nil {
		if !errors.Is(err, tracking.ErrInvalidCoordinates) {
			err = apperrors.ErrInvalidPayload.WithCause(err)
		}
		h.respondError(c, err)
		return
	}

	if err := h.Locations.SaveLocation(c.Request.Context(), pickupID, req.DriverID, sample); err != nil {
		h.respondError(c, apperrors.ErrLocationStoreUnavailable.WithCause(err))
		return
	}

	h.log(c).Debug("Driver location reported",
		logger.Int64("pickup_id", pickupID),
		logger.Int64("driver_id", req.DriverID),
		logger.String("latitude", sample.Latitude),
		logger.String("longitude", sample.Longitude),
	)
	if h.Monitor != nil {
		h.Monitor.RecordLocationReported(pickupID, req.DriverID)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"pickupId": pickupID,
		"driverId": req.DriverID,
		"location": dto.FromSample(sample),
	})
}
