package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/services"
	"github.com/tavrezsi/tavrezsi-api/utils"
)

// AssignTenantRequest represents the request body for linking an existing tenant
type AssignTenantRequest struct {
	PropertyID uint `json:"propertyId" binding:"required"`
	TenantID   uint `json:"tenantId" binding:"required"`
}

// UpdateTenancyRequest represents the request body for ending or resuming a tenancy
type UpdateTenancyRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// InviteTenantRequest represents the request body for inviting a tenant by email
type InviteTenantRequest struct {
	Email      string `json:"email" binding:"required"`
	Name       string `json:"name"`
	PropertyID uint   `json:"propertyId" binding:"required"`
}

// GetPropertyTenants handles GET /api/property-tenants?propertyId=
func GetPropertyTenants(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	propertyID, err := utils.ParseID("propertyId", c.Query("propertyId"))
	if err != nil {
		respondError(c, err)
		return
	}

	tenants, err := services.NewTenancyService(config.GetDB()).List(c.Request.Context(), caller, propertyID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, tenants)
}

// AssignTenant handles POST /api/property-tenants
func AssignTenant(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	var req AssignTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tenancy, err := services.NewTenancyService(config.GetDB()).Assign(c.Request.Context(), caller, req.PropertyID, req.TenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, tenancy)
}

// UpdateTenancy handles PATCH /api/property-tenants/:id
func UpdateTenancy(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, err := utils.ParseID("id", c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req UpdateTenancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tenancy, err := services.NewTenancyService(config.GetDB()).SetActive(c.Request.Context(), caller, id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, tenancy)
}

// DeleteTenancy handles DELETE /api/property-tenants/:id
func DeleteTenancy(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	id, err := utils.ParseID("id", c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := services.NewTenancyService(config.GetDB()).Delete(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// InviteTenant handles POST /api/property-tenants/invite
func InviteTenant(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}

	var req InviteTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	svc := services.NewInvitationService(config.GetDB(), services.GetNotifier(), appBaseURL())
	tenancy, err := svc.Invite(c.Request.Context(), caller, services.InviteInput{
		Email:      req.Email,
		Name:       req.Name,
		PropertyID: req.PropertyID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, tenancy)
}
