package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)

	if err := db.AutoMigrate(All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "properties", Property{}.TableName())
	assert.Equal(t, "meters", Meter{}.TableName())
	assert.Equal(t, "readings", Reading{}.TableName())
	assert.Equal(t, "correction_requests", CorrectionRequest{}.TableName())
	assert.Equal(t, "property_tenants", PropertyTenant{}.TableName())
	assert.Equal(t, "password_reset_tokens", PasswordResetToken{}.TableName())
}

func TestIsValidMeterType(t *testing.T) {
	for _, meterType := range []string{MeterTypeElectricity, MeterTypeGas, MeterTypeWater, MeterTypeOther} {
		assert.True(t, IsValidMeterType(meterType), meterType)
	}
	assert.False(t, IsValidMeterType("heat"))
}

func TestIsValidCorrectionStatus(t *testing.T) {
	assert.True(t, IsValidCorrectionStatus(CorrectionStatusPending))
	assert.True(t, IsValidCorrectionStatus(CorrectionStatusApproved))
	assert.True(t, IsValidCorrectionStatus(CorrectionStatusRejected))
	assert.False(t, IsValidCorrectionStatus("cancelled"))
}

func TestPasswordResetToken_IsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := PasswordResetToken{ExpiresAt: now.Add(PasswordResetTokenTTL)}

	assert.False(t, token.IsExpired(now))
	assert.False(t, token.IsExpired(now.Add(PasswordResetTokenTTL)))
	assert.True(t, token.IsExpired(now.Add(PasswordResetTokenTTL+time.Second)))
}

func TestSecretsAreNotSerialized(t *testing.T) {
	user := User{ID: 1, Username: "kovacs", PasswordHash: "$2a$10$secret"}
	body, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "secret")

	token := PasswordResetToken{ID: 1, TokenHash: "deadbeef"}
	body, err = json.Marshal(token)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "deadbeef")
}

func TestNewTenantSummary(t *testing.T) {
	assert.Nil(t, NewTenantSummary(nil))

	summary := NewTenantSummary(&User{ID: 3, Username: "berlo", Email: "berlo@example.hu", Name: "Bérlő", Role: RoleTenant, PasswordHash: "x"})
	assert.Equal(t, &TenantSummary{ID: 3, Username: "berlo", Email: "berlo@example.hu", Name: "Bérlő", Role: RoleTenant}, summary)
}

func TestMigration_Constraints(t *testing.T) {
	db := setupTestDB(t)

	owner := User{Username: "owner", Email: "owner@example.hu", PasswordHash: "x", Name: "Owner", Role: RoleOwner, IsActivated: true}
	require.NoError(t, db.Create(&owner).Error)
	tenant := User{Username: "tenant", Email: "tenant@example.hu", PasswordHash: "x", Name: "Tenant", Role: RoleTenant, IsActivated: true}
	require.NoError(t, db.Create(&tenant).Error)
	property := Property{Name: "Lakás", Address: "Fő utca 1.", OwnerID: owner.ID}
	require.NoError(t, db.Create(&property).Error)

	t.Run("role check", func(t *testing.T) {
		bad := User{Username: "bad", Email: "bad@example.hu", PasswordHash: "x", Name: "Bad", Role: "customer"}
		assert.Error(t, db.Create(&bad).Error)
	})

	t.Run("meter type check", func(t *testing.T) {
		bad := Meter{Identifier: "M-BAD", Name: "Bad", Type: "heat", Unit: "kWh", PropertyID: property.ID}
		assert.Error(t, db.Create(&bad).Error)
	})

	t.Run("unique meter identifier", func(t *testing.T) {
		first := Meter{Identifier: "M-1", Name: "Víz", Type: MeterTypeWater, Unit: "m3", PropertyID: property.ID}
		require.NoError(t, db.Create(&first).Error)
		dup := Meter{Identifier: "M-1", Name: "Víz 2", Type: MeterTypeWater, Unit: "m3", PropertyID: property.ID}
		assert.Error(t, db.Create(&dup).Error)
	})

	t.Run("one active tenancy per pair", func(t *testing.T) {
		ended := time.Now().UTC()
		past := PropertyTenant{PropertyID: property.ID, TenantID: tenant.ID, StartDate: ended.Add(-time.Hour), EndDate: &ended}
		require.NoError(t, db.Create(&past).Error)
		pastAgain := PropertyTenant{PropertyID: property.ID, TenantID: tenant.ID, StartDate: ended.Add(-time.Hour), EndDate: &ended}
		require.NoError(t, db.Create(&pastAgain).Error, "inactive rows may repeat")

		active := PropertyTenant{PropertyID: property.ID, TenantID: tenant.ID, StartDate: ended, IsActive: true}
		require.NoError(t, db.Create(&active).Error)
		second := PropertyTenant{PropertyID: property.ID, TenantID: tenant.ID, StartDate: ended, IsActive: true}
		assert.Error(t, db.Create(&second).Error)
	})

	t.Run("deleting a property cascades", func(t *testing.T) {
		require.NoError(t, db.Delete(&Property{}, property.ID).Error)

		var meters, tenancies int64
		db.Model(&Meter{}).Where("property_id = ?", property.ID).Count(&meters)
		db.Model(&PropertyTenant{}).Where("property_id = ?", property.ID).Count(&tenancies)
		assert.Zero(t, meters)
		assert.Zero(t, tenancies)
	})
}
