package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/logger"
	"github.com/tavrezsi/tavrezsi-api/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "correct-horse-battery"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// fixture is a small world: two owners with one property each, a meter on
// each property and a tenant living in the first property
type fixture struct {
	db *gorm.DB

	admin       *models.User
	owner       *models.User
	otherOwner  *models.User
	tenant      *models.User
	otherTenant *models.User

	property      *models.Property
	otherProperty *models.Property
	meter         *models.Meter
	otherMeter    *models.Meter
	tenancy       *models.PropertyTenant
}

func (f *fixture) as(u *models.User) Caller {
	return Caller{ID: u.ID, Role: u.Role}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := config.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := config.MigrateDatabase(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	BcryptCost = bcrypt.MinCost
	logger.SetTestLoggerNop()

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	f := &fixture{db: db}

	f.admin = createUser(t, db, "admin", models.RoleAdmin)
	f.owner = createUser(t, db, "owner", models.RoleOwner)
	f.otherOwner = createUser(t, db, "owner2", models.RoleOwner)
	f.tenant = createUser(t, db, "tenant", models.RoleTenant)
	f.otherTenant = createUser(t, db, "tenant2", models.RoleTenant)

	f.property = createProperty(t, db, "Petőfi lakás", f.owner.ID)
	f.otherProperty = createProperty(t, db, "Kossuth lakás", f.otherOwner.ID)
	f.meter = createMeter(t, db, "WAT-001", models.MeterTypeWater, f.property.ID)
	f.otherMeter = createMeter(t, db, "ELE-001", models.MeterTypeElectricity, f.otherProperty.ID)
	f.tenancy = createTenancy(t, db, f.property.ID, f.tenant.ID, true)
	return f
}

func createUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()

	hash, err := HashPassword(testPassword)
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.hu",
		PasswordHash: hash,
		Name:         username,
		Role:         role,
		IsActivated:  true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createProperty(t *testing.T, db *gorm.DB, name string, ownerID uint) *models.Property {
	t.Helper()

	property := &models.Property{Name: name, Address: name + " utca 1.", OwnerID: ownerID}
	require.NoError(t, db.Create(property).Error)
	return property
}

func createMeter(t *testing.T, db *gorm.DB, identifier, meterType string, propertyID uint) *models.Meter {
	t.Helper()

	meter := &models.Meter{Identifier: identifier, Name: identifier, Type: meterType, Unit: "m3", PropertyID: propertyID}
	require.NoError(t, db.Create(meter).Error)
	return meter
}

func createTenancy(t *testing.T, db *gorm.DB, propertyID, tenantID uint, active bool) *models.PropertyTenant {
	t.Helper()

	row := &models.PropertyTenant{PropertyID: propertyID, TenantID: tenantID, StartDate: fixedNow.Add(-48 * time.Hour), IsActive: active}
	if !active {
		ended := fixedNow.Add(-24 * time.Hour)
		row.EndDate = &ended
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func createReading(t *testing.T, db *gorm.DB, meterID uint, value int64, at time.Time) *models.Reading {
	t.Helper()

	reading := &models.Reading{MeterID: meterID, Reading: value, Timestamp: at}
	require.NoError(t, db.Create(reading).Error)
	return reading
}

func assertNotFound(t *testing.T, err error, resource string) {
	t.Helper()

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, resource, nf.Resource)
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()

	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, field, ve.Field)
}

func assertConflict(t *testing.T, err error) {
	t.Helper()

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
}
