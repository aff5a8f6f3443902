package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/services"
	"github.com/tavrezsi/tavrezsi-api/utils"
)

// CreateCorrectionRequest represents the request body for filing a correction
type CreateCorrectionRequest struct {
	MeterID          uint   `json:"meterId" binding:"required"`
	RequestedReading *int64 `json:"requestedReading" binding:"required"`
	Reason           string `json:"reason" binding:"required"`
}

// ResolveCorrectionRequest represents the request body for resolving a correction
type ResolveCorrectionRequest struct {
	Status string `json:"status" binding:"required"`
}

// GetCorrectionRequests handles GET /api/correction-requests?status=
func GetCorrectionRequests(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	requests, err := services.NewCorrectionService(config.GetDB()).List(c.Request.Context(), caller, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, requests)
}

// GetCorrectionRequest handles GET /api/correction-requests/:id
func GetCorrectionRequest(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, err := utils.ParseID("id", c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	request, err := services.NewCorrectionService(config.GetDB()).Get(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, request)
}

// CreateCorrection handles POST /api/correction-requests
func CreateCorrection(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	var req CreateCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	request, err := services.NewCorrectionService(config.GetDB()).Create(c.Request.Context(), caller, services.CreateCorrectionInput{
		MeterID:          req.MeterID,
		RequestedReading: *req.RequestedReading,
		Reason:           req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, request)
}

// ResolveCorrection handles PATCH /api/correction-requests/:id (admin only)
func ResolveCorrection(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, err := utils.ParseID("id", c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req ResolveCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	request, err := services.NewCorrectionService(config.GetDB()).Resolve(c.Request.Context(), caller, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, request)
}
