package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/services"
	"github.com/tavrezsi/tavrezsi-api/utils"
)

// CreateMeterRequest represents the request body for creating a meter
type CreateMeterRequest struct {
	Identifier        string     `json:"identifier" binding:"required"`
	Name              string     `json:"name" binding:"required"`
	Type              string     `json:"type" binding:"required"`
	Unit              string     `json:"unit" binding:"required"`
	PropertyID        uint       `json:"propertyId" binding:"required"`
	LastCertified     *time.Time `json:"lastCertified"`
	NextCertification *time.Time `json:"nextCertification"`
}

// GetMeters handles GET /api/meters?propertyId=
func GetMeters(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	propertyID, err := utils.ParseOptionalID("propertyId", c.Query("propertyId"))
	if err != nil {
		respondError(c, err)
		return
	}

	meters, err := services.NewMeterService(config.GetDB()).List(c.Request.Context(), caller, propertyID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, meters)
}

// GetMeter handles GET /api/meters/:id
func GetMeter(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, err := utils.ParseID("id", c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	meter, err := services.NewMeterService(config.GetDB()).Get(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, meter)
}

// CreateMeter handles POST /api/meters (admin only)
func CreateMeter(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	var req CreateMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	meter, err := services.NewMeterService(config.GetDB()).Create(c.Request.Context(), caller, services.CreateMeterInput{
		Identifier:        req.Identifier,
		Name:              req.Name,
		Type:              req.Type,
		Unit:              req.Unit,
		PropertyID:        req.PropertyID,
		LastCertified:     req.LastCertified,
		NextCertification: req.NextCertification,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, meter)
}

// DeleteMeter handles DELETE /api/meters/:id (admin only)
func DeleteMeter(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, err := utils.ParseID("id", c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := services.NewMeterService(config.GetDB()).Delete(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
