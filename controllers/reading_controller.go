package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/services"
	"github.com/tavrezsi/tavrezsi-api/utils"
)

// CreateReadingRequest represents the request body for a manual reading
type CreateReadingRequest struct {
	MeterID uint   `json:"meterId" binding:"required"`
	Reading *int64 `json:"reading" binding:"required"`
}

// DeviceReadingRequest represents a reading pushed by a metering device
type DeviceReadingRequest struct {
	MeterIdentifier string     `json:"meterIdentifier" binding:"required"`
	Reading         *int64     `json:"reading" binding:"required"`
	Timestamp       *time.Time `json:"timestamp"`
}

// GetReadings handles GET /api/readings?meterId=&limit=
func GetReadings(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	meterID, err := utils.ParseOptionalID("meterId", c.Query("meterId"))
	if err != nil {
		respondError(c, err)
		return
	}
	limit, err := utils.ParseOptionalInt("limit", c.Query("limit"))
	if err != nil {
		respondError(c, err)
		return
	}

	readings, err := services.NewReadingService(config.GetDB()).List(c.Request.Context(), caller, meterID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, readings)
}

// GetLatestReading handles GET /api/meters/:id/latest-reading
func GetLatestReading(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, err := utils.ParseID("id", c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	reading, err := services.NewReadingService(config.GetDB()).Latest(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, reading)
}

// CreateReading handles POST /api/readings - records a manual reading
func CreateReading(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	var req CreateReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reading, err := services.NewReadingService(config.GetDB()).Create(c.Request.Context(), caller, req.MeterID, *req.Reading)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, reading)
}

// CreateDeviceReading handles POST /api/readings/device (admin only)
func CreateDeviceReading(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	var req DeviceReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reading, err := services.NewReadingService(config.GetDB()).RecordDevice(c.Request.Context(), caller, req.MeterIdentifier, *req.Reading, req.Timestamp)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, reading)
}
