package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tavrezsi/tavrezsi-api/models"
)

func TestGetProperties(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{name: "admin", user: env.admin, want: 2},
		{name: "owner", user: env.owner, want: 1},
		{name: "tenant", user: env.tenant, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(setupTestRouter(tt.user), http.MethodGet, "/api/properties", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Len(t, dataList(t, w), tt.want)
		})
	}
}

func TestGetProperty(t *testing.T) {
	env := setupTestEnv(t)
	router := setupTestRouter(env.tenant)

	w := performRequest(router, http.MethodGet, fmt.Sprintf("/api/properties/%d", env.property.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataObject(t, w)
	assert.Equal(t, "Petőfi lakás", data["name"])
	assert.Equal(t, float64(env.owner.ID), data["ownerId"])

	w = performRequest(router, http.MethodGet, fmt.Sprintf("/api/properties/%d", env.otherProperty.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))

	w = performRequest(router, http.MethodGet, "/api/properties/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PROPERTY_NOT_FOUND", errorCode(t, w))

	w = performRequest(router, http.MethodGet, "/api/properties/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestCreateProperty(t *testing.T) {
	env := setupTestEnv(t)

	body := map[string]interface{}{"name": "Új lakás", "address": "Váci út 2.", "ownerId": env.owner.ID}

	w := performRequest(setupTestRouter(env.admin), http.MethodPost, "/api/properties", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotZero(t, dataObject(t, w)["id"])

	w = performRequest(setupTestRouter(env.owner), http.MethodPost, "/api/properties", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(setupTestRouter(env.admin), http.MethodPost, "/api/properties", map[string]interface{}{"name": "X"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteProperty(t *testing.T) {
	env := setupTestEnv(t)
	path := fmt.Sprintf("/api/properties/%d", env.property.ID)

	w := performRequest(setupTestRouter(env.owner), http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(setupTestRouter(env.admin), http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = performRequest(setupTestRouter(env.admin), http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
