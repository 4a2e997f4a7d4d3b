package handlers

import (
	"net/http"

	"github.com/bluecycle/bluecycle/internal/api/dto"
	apperrors "github.com/bluecycle/bluecycle/pkg/errors"
	"github.com/bluecycle/bluecycle/pkg/logger"
	"github.com/gin-gonic/gin"
)

// SubmitRating handles POST /api/driver-ratings
func (h *Handlers) SubmitRating(c *gin.Context) {
	var req dto.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.ErrInvalidPayload.WithCause(err))
		return
	}

	sub := req.ToSubmission()
	result, err := h.Ratings.Create(c.Request.Context(), sub)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.log(c).Info("Driver rating stored",
		logger.Int64("rating_id", result.RatingID),
		logger.Int64("pickup_id", sub.PickupID),
		logger.Int64("driver_id", sub.DriverID),
		logger.Int("rating", sub.Stars),
		logger.Bool("duplicate", result.Duplicate),
		logger.Float64("average_rating", result.AverageRating),
	)
	if h.Monitor != nil {
		h.Monitor.RecordRatingStored(sub.DriverID, sub.Stars, result.Duplicate)
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, dto.SubmitRatingResponse{
		Status:        "ok",
		RatingID:      result.RatingID,
		AverageRating: result.AverageRating,
		Duplicate:     result.Duplicate,
	})
}
