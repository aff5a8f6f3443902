package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

const metricsNamespace = "tavrezsi"

var (
	correctionResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "corrections",
			Name:      "resolutions_total",
			Help:      "Total number of resolved correction requests",
		},
		[]string{"status"}, // approved, rejected
	)

	invitationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "tenants",
			Name:      "invitations_total",
			Help:      "Total number of tenant invitations",
		},
		[]string{"result"}, // sent, failed
	)

	passwordResets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "credentials",
			Name:      "password_resets_total",
			Help:      "Total number of credential setup attempts",
		},
		[]string{"result"}, // success, invalid, expired, used
	)

	notifierFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "notifier",
			Name:      "failures_total",
			Help:      "Total number of failed notifications",
		},
		[]string{"kind"},
	)

	dbConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "connections_open",
			Help:      "Number of open database connections",
		},
	)

	dbConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "connections_in_use",
			Help:      "Number of database connections currently in use",
		},
	)
)

// CollectDBStats refreshes the connection pool gauges every interval until ctx is done
func CollectDBStats(ctx context.Context, db *gorm.DB, interval time.Duration) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats := sqlDB.Stats()
		dbConnectionsOpen.Set(float64(stats.OpenConnections))
		dbConnectionsInUse.Set(float64(stats.InUse))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
