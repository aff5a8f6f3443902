package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/models"
	"github.com/tavrezsi/tavrezsi-api/services"
	"github.com/tavrezsi/tavrezsi-api/tests/testutil"
	"gorm.io/gorm"
)

// testEnv holds a seeded database: an owner with one property and a water
// meter, a tenant living there, and a second owner with their own property
type testEnv struct {
	db       *gorm.DB
	notifier *services.MockNotifier

	admin      *models.User
	owner      *models.User
	otherOwner *models.User
	tenant     *models.User

	property      *models.Property
	otherProperty *models.Property
	meter         *models.Meter
	otherMeter    *models.Meter
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	config.SetConfig(testutil.TestConfig())

	notifier := services.NewMockNotifier()
	notifier.SetAsMockForTesting()

	originalStorage := services.GetStorage()
	services.SetStorage(nil)
	t.Cleanup(func() {
		services.SetNotifier(nil)
		services.SetStorage(originalStorage)
	})

	env := &testEnv{db: db, notifier: notifier}
	env.admin = testutil.CreateUser(t, db, "admin", models.RoleAdmin)
	env.owner = testutil.CreateUser(t, db, "owner", models.RoleOwner)
	env.otherOwner = testutil.CreateUser(t, db, "owner2", models.RoleOwner)
	env.tenant = testutil.CreateUser(t, db, "tenant", models.RoleTenant)

	env.property = testutil.CreateProperty(t, db, "Petőfi lakás", env.owner.ID)
	env.otherProperty = testutil.CreateProperty(t, db, "Kossuth lakás", env.otherOwner.ID)
	env.meter = testutil.CreateMeter(t, db, "WAT-001", models.MeterTypeWater, env.property.ID)
	env.otherMeter = testutil.CreateMeter(t, db, "ELE-001", models.MeterTypeElectricity, env.otherProperty.ID)
	testutil.CreateTenancy(t, db, env.property.ID, env.tenant.ID, true)
	return env
}

// setupTestRouter registers every handler behind a mock authentication
// middleware. A nil user leaves requests unauthenticated.
func setupTestRouter(user *models.User) *gin.Engine {
	router := gin.New()

	api := router.Group("/api")
	api.POST("/login", Login)
	api.POST("/request-password-reset", RequestPasswordReset)
	api.GET("/reset-password/:token", ValidateResetToken)
	api.POST("/reset-password", ResetPassword)
	api.GET("/health", HealthCheck)
	api.GET("/database/status", DatabaseStatus)

	protected := api.Group("")
	if user != nil {
		protected.Use(testutil.MockAuthMiddleware(user.ID, user.Role))
	}
	protected.GET("/user", GetCurrentUser)
	protected.PUT("/user", UpdateCurrentUser)
	protected.GET("/users", GetUsers)
	protected.POST("/users", CreateUser)
	protected.GET("/properties", GetProperties)
	protected.GET("/properties/:id", GetProperty)
	protected.POST("/properties", CreateProperty)
	protected.DELETE("/properties/:id", DeleteProperty)
	protected.GET("/meters", GetMeters)
	protected.GET("/meters/:id", GetMeter)
	protected.GET("/meters/:id/latest-reading", GetLatestReading)
	protected.POST("/meters", CreateMeter)
	protected.DELETE("/meters/:id", DeleteMeter)
	protected.GET("/readings", GetReadings)
	protected.POST("/readings", CreateReading)
	protected.POST("/readings/device", CreateDeviceReading)
	protected.GET("/correction-requests", GetCorrectionRequests)
	protected.GET("/correction-requests/:id", GetCorrectionRequest)
	protected.POST("/correction-requests", CreateCorrection)
	protected.PATCH("/correction-requests/:id", ResolveCorrection)
	protected.GET("/property-tenants", GetPropertyTenants)
	protected.POST("/property-tenants", AssignTenant)
	protected.POST("/property-tenants/invite", InviteTenant)
	protected.PATCH("/property-tenants/:id", UpdateTenancy)
	protected.DELETE("/property-tenants/:id", DeleteTenancy)
	protected.GET("/reports/consumption", GetConsumptionReport)
	protected.POST("/reports/consumption/export", ExportConsumptionReport)
	return router
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

// errorCode returns error.code of a failure envelope
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	response := decodeResponse(t, w)
	require.Equal(t, false, response["success"])
	errBody, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "body: %s", w.Body.String())
	return errBody["code"].(string)
}

func dataObject(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	response := decodeResponse(t, w)
	require.Equal(t, true, response["success"], "body: %s", w.Body.String())
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "body: %s", w.Body.String())
	return data
}

func dataList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()

	response := decodeResponse(t, w)
	require.Equal(t, true, response["success"], "body: %s", w.Body.String())
	data, ok := response["data"].([]interface{})
	require.True(t, ok, "body: %s", w.Body.String())
	return data
}
