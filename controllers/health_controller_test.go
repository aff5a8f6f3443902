package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tavrezsi/tavrezsi-api/config"
)

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := performRequest(setupTestRouter(nil), http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "TávRezsi API is running", response["message"])
}

func TestDatabaseStatus(t *testing.T) {
	setupTestEnv(t)

	w := performRequest(setupTestRouter(nil), http.MethodGet, "/api/database/status", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	response := decodeResponse(t, w)
	assert.Equal(t, "sqlite", response["driver"])
	assert.Contains(t, response["tables"], "readings")
	assert.Contains(t, response["tables"], "property_tenants")
}

func TestDatabaseStatus_NotInitialized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	original := config.GetDB()
	config.SetDB(nil)
	t.Cleanup(func() { config.SetDB(original) })

	w := performRequest(setupTestRouter(nil), http.MethodGet, "/api/database/status", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "DATABASE_ERROR", errorCode(t, w))
}
