package services

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_sync_operations_total",
			Help: "Total number of feed sync operations",
		},
		[]string{"operation", "status"},
	)

	syncOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_sync_operation_duration_seconds",
			Help:    "Duration of feed sync operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	syncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_sync_errors_total",
			Help: "Total number of feed sync errors by kind",
		},
		[]string{"operation", "error_type"},
	)

	likesToggledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_likes_toggled_total",
			Help: "Total number of like toggles by resulting state",
		},
		[]string{"state"},
	)

	avatarLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_avatar_loads_total",
			Help: "Total number of avatar loads by source",
		},
		[]string{"source"},
	)
)

// RecordSyncOperation учитывает операцию синхронизации в метриках
func RecordSyncOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	syncOperationsTotal.WithLabelValues(operation, status).Inc()
	syncOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())

	if err != nil {
		syncErrors.WithLabelValues(operation, errorType(err)).Inc()
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrNetworkFailure):
		return "network"
	case errors.Is(err, ErrDecodeFailure):
		return "decode"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrStoreFailure):
		return "store"
	default:
		return "unknown"
	}
}
