package handlers

import (
	"net/http"
	"strconv"

	"iplocator/internal/services"

	"github.com/gin-gonic/gin"
)

// parseLimit treats a missing, unparsable or zero limit as the default.
func parseLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n == 0 {
		n = services.DefaultVisitLimit
	}
	return services.ClampLimit(n)
}

func parseOffset(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		n = 0
	}
	return services.ClampOffset(n)
}

func (h *Handler) ListVisits(c *gin.Context) {
	limit := parseLimit(c.Query("limit"))
	offset := parseOffset(c.Query("offset"))
	if admin := currentAdmin(c); admin != nil {
		h.logger.Debug("Listing visits", "admin", admin.Username, "limit", limit, "offset", offset)
	}

	page, err := h.visitService.ListVisits(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list visits", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, page)
}
