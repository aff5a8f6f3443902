package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/logger"
	"github.com/tavrezsi/tavrezsi-api/models"
	"github.com/tavrezsi/tavrezsi-api/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the password of every user created by CreateUser
const TestPassword = "correct-horse-battery"

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// RequireTestEnvironmentOrSkip is similar to RequireTestEnvironment but skips the test
// instead of failing it. Use this for optional tests that should only run in test environment.
func RequireTestEnvironmentOrSkip(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Skipf("Skipping test: GO_ENV must be 'test' (current: %q)", env)
	}
}

// TestConfig returns a configuration suitable for in-process tests
func TestConfig() *config.Config {
	return &config.Config{
		DBDriver:           config.DriverSQLite,
		SQLitePath:         ":memory:",
		Port:               "8080",
		GoEnv:              "test",
		JWTSecret:          "test-secret-with-enough-entropy",
		JWTIssuer:          "tavrezsi-test",
		JWTAudience:        "tavrezsi-test-api",
		TokenTTL:           time.Hour,
		AppBaseURL:         "http://app.test",
		CORSAllowedOrigins: []string{"http://app.test"},
		EmailProvider:      "log",
		EmailFrom:          "noreply@tavrezsi.test",
		ResetRateLimit:     1000,
		ResetRateBurst:     1000,
		LogLevel:           "error",
	}
}

// SetupTestDB opens a migrated in-memory database, installs it as the global
// database and silences logging. bcrypt is switched to its minimum cost.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := config.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := config.MigrateDatabase(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	services.BcryptCost = bcrypt.MinCost
	logger.SetTestLoggerNop()
	config.SetDB(db)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts an activated user whose password is TestPassword
func CreateUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()

	hash, err := services.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := &models.User{
		Username:     username,
		Email:        username + "@example.hu",
		PasswordHash: hash,
		Name:         username,
		Role:         role,
		IsActivated:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

// CreateProperty inserts a property owned by ownerID
func CreateProperty(t *testing.T, db *gorm.DB, name string, ownerID uint) *models.Property {
	t.Helper()

	property := &models.Property{Name: name, Address: name + " utca 1.", OwnerID: ownerID}
	if err := db.Create(property).Error; err != nil {
		t.Fatalf("Failed to create property %s: %v", name, err)
	}
	return property
}

// CreateMeter inserts a meter of meterType on propertyID
func CreateMeter(t *testing.T, db *gorm.DB, identifier, meterType string, propertyID uint) *models.Meter {
	t.Helper()

	meter := &models.Meter{
		Identifier: identifier,
		Name:       identifier,
		Type:       meterType,
		Unit:       "m3",
		PropertyID: propertyID,
	}
	if err := db.Create(meter).Error; err != nil {
		t.Fatalf("Failed to create meter %s: %v", identifier, err)
	}
	return meter
}

// CreateTenancy links tenantID to propertyID
func CreateTenancy(t *testing.T, db *gorm.DB, propertyID, tenantID uint, active bool) *models.PropertyTenant {
	t.Helper()

	row := &models.PropertyTenant{
		PropertyID: propertyID,
		TenantID:   tenantID,
		StartDate:  time.Now().UTC(),
		IsActive:   active,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("Failed to create tenancy: %v", err)
	}
	return row
}

// PrintEnvironmentInfo prints the current test environment configuration.
// Useful for debugging test environment issues.
func PrintEnvironmentInfo() {
	fmt.Printf("Test Environment Info:\n")
	fmt.Printf("  GO_ENV: %s\n", os.Getenv("GO_ENV"))
	fmt.Printf("  DB_DRIVER: %s\n", os.Getenv("DB_DRIVER"))
	fmt.Printf("  EMAIL_PROVIDER: %s\n", os.Getenv("EMAIL_PROVIDER"))
}
