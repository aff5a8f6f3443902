package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/services"
	"github.com/tavrezsi/tavrezsi-api/utils"
)

// CreatePropertyRequest represents the request body for creating a property
type CreatePropertyRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	OwnerID uint   `json:"ownerId" binding:"required"`
}

// GetProperties handles GET /api/properties - lists the properties visible to the caller
func GetProperties(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	properties, err := services.NewPropertyService(config.GetDB()).List(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, properties)
}

// GetProperty handles GET /api/properties/:id
func GetProperty(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, err := utils.ParseID("id", c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	property, err := services.NewPropertyService(config.GetDB()).Get(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, property)
}

// CreateProperty handles POST /api/properties (admin only)
func CreateProperty(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	property, err := services.NewPropertyService(config.GetDB()).Create(c.Request.Context(), caller, services.CreatePropertyInput{
		Name:    req.Name,
		Address: req.Address,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, property)
}

// DeleteProperty handles DELETE /api/properties/:id (admin only)
func DeleteProperty(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, err := utils.ParseID("id", c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := services.NewPropertyService(config.GetDB()).Delete(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
