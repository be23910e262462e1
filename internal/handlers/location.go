package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"iplocator/internal/middleware"
	"iplocator/internal/models"
	"iplocator/internal/services"

	"github.com/gin-gonic/gin"
)

const dbWarning = "Database not configured. Data not saved."

type locationResponse struct {
	services.IPLocation
	VisitID   *uint      `json:"visitId,omitempty"`
	SavedAt   *time.Time `json:"savedAt,omitempty"`
	DBWarning string     `json:"dbWarning,omitempty"`
}

func (h *Handler) GetLocation(c *gin.Context) {
	loc, outcome, err := h.visitService.Locate(c.Request.Context(), middleware.GetClientIP(c), c.GetHeader("User-Agent"))
	if err != nil {
		var upstream *services.UpstreamError
		if errors.As(err, &upstream) {
			h.logger.Warn("IP lookup failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": upstream.Message})
			return
		}
		h.logger.Error("IP lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch location data"})
		return
	}

	resp := locationResponse{IPLocation: *loc}
	switch o := outcome.(type) {
	case services.Persisted:
		resp.VisitID = &o.ID
		resp.SavedAt = &o.VisitedAt
	case services.PersistenceUnavailable:
		resp.DBWarning = dbWarning
	}

	c.JSON(http.StatusOK, resp)
}

// GPSRequest uses pointers so that an explicit 0 is distinguishable from a
// missing field.
type GPSRequest struct {
	VisitID          *uint                   `json:"visitId"`
	Latitude         *float64                `json:"latitude"`
	Longitude        *float64                `json:"longitude"`
	Accuracy         *float64                `json:"accuracy"`
	PermissionStatus models.PermissionStatus `json:"permissionStatus"`
	ErrorMessage     string                  `json:"errorMessage"`
}

type gpsResponse struct {
	Success          bool     `json:"success"`
	GPSCity          *string  `json:"gpsCity"`
	GPSRegion        *string  `json:"gpsRegion"`
	GPSRegionCode    *string  `json:"gpsRegionCode"`
	GPSCountry       *string  `json:"gpsCountry"`
	GPSCountryCode   *string  `json:"gpsCountryCode"`
	GPSZipCode       *string  `json:"gpsZipCode"`
	GPSStreetAddress *string  `json:"gpsStreetAddress"`
	GPSLat           float64  `json:"gpsLat"`
	GPSLon           float64  `json:"gpsLon"`
	GPSAccuracy      *float64 `json:"gpsAccuracy"`
	LocationDistance float64  `json:"locationDistance"`
}

func (h *Handler) ReportGPS(c *gin.Context) {
	var req GPSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.VisitID == nil || req.Latitude == nil || req.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	if !req.PermissionStatus.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid permission status"})
		return
	}

	report := services.GPSReport{
		VisitID:          *req.VisitID,
		Latitude:         *req.Latitude,
		Longitude:        *req.Longitude,
		Accuracy:         req.Accuracy,
		PermissionStatus: req.PermissionStatus,
		ErrorMessage:     req.ErrorMessage,
	}

	result, err := h.reconciler.ReportGPS(c.Request.Context(), report)
	if err != nil {
		h.writeGPSError(c, err)
		return
	}

	if result.PermissionStatus != models.PermissionGranted {
		c.JSON(http.StatusOK, gin.H{"success": true, "permissionStatus": result.PermissionStatus})
		return
	}

	h.auditService.LogAction(nil, models.ActionGPSReconciled, strconv.FormatUint(uint64(report.VisitID), 10),
		gin.H{"distanceKm": result.DistanceKm, "accuracy": result.Accuracy}, middleware.GetClientIP(c))

	c.JSON(http.StatusOK, gpsResponse{
		Success:          true,
		GPSCity:          result.Address.City,
		GPSRegion:        result.Address.Region,
		GPSRegionCode:    result.Address.RegionCode,
		GPSCountry:       result.Address.Country,
		GPSCountryCode:   result.Address.CountryCode,
		GPSZipCode:       result.Address.ZipCode,
		GPSStreetAddress: result.Address.StreetAddress,
		GPSLat:           result.Latitude,
		GPSLon:           result.Longitude,
		GPSAccuracy:      result.Accuracy,
		LocationDistance: result.DistanceKm,
	})
}

func (h *Handler) writeGPSError(c *gin.Context, err error) {
	var upstream *services.UpstreamError
	switch {
	case errors.Is(err, services.ErrVisitNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Visit not found"})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid permission status"})
	case errors.As(err, &upstream):
		h.logger.Warn("Reverse geocoding failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Reverse geocoding failed: " + upstream.Message})
	default:
		h.logger.Error("GPS update failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
