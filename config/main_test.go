package config

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/tavrezsi/tavrezsi-api/logger"
)

// TestMain refuses to run outside GO_ENV=test, and refuses a postgres
// DATABASE_URL that does not name a test database, since the migration
// tests write to whatever database they are pointed at.
func TestMain(m *testing.M) {
	if env := os.Getenv("GO_ENV"); env != "test" {
		abort("Tests must run with GO_ENV=test (current GO_ENV: %q).\nRun: GO_ENV=test go test ./...", env)
	}
	if url := os.Getenv("DATABASE_URL"); url != "" && !strings.Contains(url, "test") {
		abort("DATABASE_URL does not point at a test database: %q.\nUnset it or use a *_test database.", url)
	}

	logger.SetTestLoggerNop()
	os.Exit(m.Run())
}

func abort(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\nSAFETY CHECK FAILED\n"+format+"\n\n", args...)
	os.Exit(1)
}
