package handlers

import (
	"net/http"

	"github.com/bluecycle/bluecycle/internal/api/dto"
	apperrors "github.com/bluecycle/bluecycle/pkg/errors"
	"github.com/gin-gonic/gin"
)

// GetDriver handles GET /api/drivers/:id
func (h *Handlers) GetDriver(c *gin.Context) {
	driverID, err := parseID(c, "id", apperrors.ErrInvalidDriverID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	profile, err := h.Drivers.GetProfile(c.Request.Context(), driverID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromProfile(*profile))
}
