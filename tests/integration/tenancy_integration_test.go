package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/models"
	"github.com/tavrezsi/tavrezsi-api/router"
	"github.com/tavrezsi/tavrezsi-api/services"
	"github.com/tavrezsi/tavrezsi-api/tests/testutil"
	"gorm.io/gorm"
)

// TenancyIntegrationTestSuite covers the invitation and tenancy lifecycle
// through the full middleware chain
type TenancyIntegrationTestSuite struct {
	suite.Suite
	router   *gin.Engine
	cfg      *config.Config
	db       *gorm.DB
	notifier *services.MockNotifier

	owner    *models.User
	property *models.Property
	meter    *models.Meter
}

func (suite *TenancyIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.cfg = testutil.TestConfig()
	config.SetConfig(suite.cfg)
}

func (suite *TenancyIntegrationTestSuite) SetupTest() {
	t := suite.T()
	suite.db = testutil.SetupTestDB(t)
	suite.notifier = services.NewMockNotifier()
	suite.notifier.SetAsMockForTesting()

	suite.owner = testutil.CreateUser(t, suite.db, "owner", models.RoleOwner)
	suite.property = testutil.CreateProperty(t, suite.db, "Petőfi lakás", suite.owner.ID)
	suite.meter = testutil.CreateMeter(t, suite.db, "GAS-001", models.MeterTypeGas, suite.property.ID)
	suite.router = router.Setup(suite.cfg)
}

func (suite *TenancyIntegrationTestSuite) TearDownTest() {
	services.SetNotifier(nil)
}

func (suite *TenancyIntegrationTestSuite) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", testutil.BearerHeader(token))
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		suite.NoError(json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	}
	return w.Code, response
}

func (suite *TenancyIntegrationTestSuite) login(username, password string) string {
	status, response := suite.do(http.MethodPost, "/api/login", "", map[string]string{"username": username, "password": password})
	require.Equal(suite.T(), http.StatusOK, status, response)
	return response["data"].(map[string]interface{})["token"].(string)
}

// TestInviteResetLoginAndRead walks an invited tenant from the email link to
// their first meter reading
func (suite *TenancyIntegrationTestSuite) TestInviteResetLoginAndRead() {
	t := suite.T()
	ownerToken := testutil.IssueToken(t, suite.cfg, suite.owner)

	status, response := suite.do(http.MethodPost, "/api/property-tenants/invite", ownerToken, map[string]interface{}{
		"email": "Kovacs.Anna@Example.hu", "name": "Kovács Anna", "propertyId": suite.property.ID,
	})
	require.Equal(t, http.StatusCreated, status, response)
	tenancy := response["data"].(map[string]interface{})
	assert.Equal(t, false, tenancy["isActive"])
	assert.Equal(t, "kovacs.anna", tenancy["tenant"].(map[string]interface{})["username"])

	// not activated yet
	status, response = suite.do(http.MethodPost, "/api/login", "", map[string]string{"username": "kovacs.anna", "password": "anything-at-all"})
	assert.Equal(t, http.StatusUnauthorized, status, response)

	sent, ok := suite.notifier.LastOfKind(services.NotificationTenantInvite)
	require.True(t, ok)
	assert.Equal(t, "kovacs.anna@example.hu", sent.RecipientEmail)
	assert.Equal(t, "Petőfi lakás", sent.PropertyName)
	link, err := url.Parse(sent.Link)
	require.NoError(t, err)
	token := link.Query().Get("token")

	status, response = suite.do(http.MethodGet, "/api/reset-password/"+token, "", nil)
	require.Equal(t, http.StatusOK, status, response)
	assert.Equal(t, models.TokenPurposeTenantInvite, response["data"].(map[string]interface{})["purpose"])

	status, response = suite.do(http.MethodPost, "/api/reset-password", "", map[string]string{"token": token, "password": "anna-jelszava-2026"})
	require.Equal(t, http.StatusOK, status, response)
	_, welcomed := suite.notifier.LastOfKind(services.NotificationWelcome)
	assert.True(t, welcomed)

	tenantToken := suite.login("kovacs.anna", "anna-jelszava-2026")

	status, response = suite.do(http.MethodGet, "/api/properties", tenantToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, response["data"], 1)

	status, response = suite.do(http.MethodPost, "/api/readings", tenantToken, map[string]interface{}{
		"meterId": suite.meter.ID, "reading": 4521,
	})
	require.Equal(t, http.StatusCreated, status, response)
	assert.Equal(t, float64(4521), response["data"].(map[string]interface{})["reading"])

	status, response = suite.do(http.MethodGet, fmt.Sprintf("/api/property-tenants?propertyId=%d", suite.property.ID), ownerToken, nil)
	require.Equal(t, http.StatusOK, status)
	rows := response["data"].([]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, true, rows[0].(map[string]interface{})["isActive"])
}

// TestDeactivationRemovesAccess checks that ending a tenancy takes effect on
// the tenant's next request
func (suite *TenancyIntegrationTestSuite) TestDeactivationRemovesAccess() {
	t := suite.T()
	tenant := testutil.CreateUser(t, suite.db, "berlo", models.RoleTenant)
	row := testutil.CreateTenancy(t, suite.db, suite.property.ID, tenant.ID, true)
	ownerToken := testutil.IssueToken(t, suite.cfg, suite.owner)
	tenantToken := testutil.IssueToken(t, suite.cfg, tenant)
	meterPath := fmt.Sprintf("/api/meters/%d", suite.meter.ID)

	status, _ := suite.do(http.MethodGet, meterPath, tenantToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, response := suite.do(http.MethodPatch, fmt.Sprintf("/api/property-tenants/%d", row.ID), ownerToken, map[string]interface{}{"isActive": false})
	require.Equal(t, http.StatusOK, status, response)

	status, _ = suite.do(http.MethodGet, meterPath, tenantToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = suite.do(http.MethodPost, "/api/readings", tenantToken, map[string]interface{}{"meterId": suite.meter.ID, "reading": 1})
	assert.Equal(t, http.StatusForbidden, status)

	status, response = suite.do(http.MethodGet, "/api/properties", tenantToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, response["data"])

	status, _ = suite.do(http.MethodPatch, fmt.Sprintf("/api/property-tenants/%d", row.ID), ownerToken, map[string]interface{}{"isActive": true})
	require.Equal(t, http.StatusOK, status)

	status, _ = suite.do(http.MethodGet, meterPath, tenantToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

// TestResetRequestDoesNotLeakAccounts checks that known and unknown emails
// get the same answer
func (suite *TenancyIntegrationTestSuite) TestResetRequestDoesNotLeakAccounts() {
	t := suite.T()

	knownStatus, known := suite.do(http.MethodPost, "/api/request-password-reset", "", map[string]string{"email": "owner@example.hu"})
	unknownStatus, unknown := suite.do(http.MethodPost, "/api/request-password-reset", "", map[string]string{"email": "nobody@example.hu"})

	assert.Equal(t, http.StatusOK, knownStatus)
	assert.Equal(t, knownStatus, unknownStatus)
	assert.Equal(t, known, unknown)
	assert.Len(t, suite.notifier.Sent(), 1)
}

func TestTenancyIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(TenancyIntegrationTestSuite))
}
