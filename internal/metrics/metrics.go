// Package metrics provides Prometheus metrics for the orbit client.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	rpcCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbit_rpc_calls_total",
			Help: "Total number of RPC calls by procedure, kind and status",
		},
		[]string{"procedure", "kind", "status"},
	)

	subscriptionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbit_rpc_subscriptions_active",
			Help: "Number of open RPC subscriptions",
		},
	)

	thumbnailsReadyTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orbit_thumbnails_ready_total",
			Help: "Total number of thumbnail-ready events applied to the availability cache",
		},
	)

	thumbnailCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbit_thumbnail_cache_entries",
			Help: "Number of content addresses known to have a ready thumbnail",
		},
	)

	thumbnailJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbit_backend_thumbnail_jobs_total",
			Help: "Thumbnail generation jobs run by the development backend",
		},
		[]string{"status"},
	)

	vaultUnlockAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbit_vault_unlock_attempts_total",
			Help: "Key vault unlock submissions by result",
		},
		[]string{"result"},
	)

	vaultLockRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbit_vault_lock_requests_total",
			Help: "Key vault lock requests by outcome of the backend mutations",
		},
		[]string{"result"},
	)
)

// RecordRPCCall records one query, mutation or subscribe call.
func RecordRPCCall(procedure, kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	rpcCallsTotal.WithLabelValues(procedure, kind, status).Inc()
}

// SubscriptionOpened increments the open-subscription gauge.
func SubscriptionOpened() { subscriptionsActive.Inc() }

// SubscriptionClosed decrements the open-subscription gauge.
func SubscriptionClosed() { subscriptionsActive.Dec() }

// RecordThumbnailReady counts an applied ready event.
func RecordThumbnailReady() { thumbnailsReadyTotal.Inc() }

// SetThumbnailCacheEntries sets the cache size gauge.
func SetThumbnailCacheEntries(n int) { thumbnailCacheEntries.Set(float64(n)) }

// RecordThumbnailJob counts a backend thumbnail job ("ok", "skipped", "error").
func RecordThumbnailJob(status string) { thumbnailJobsTotal.WithLabelValues(status).Inc() }

// RecordUnlockAttempt counts an unlock submission ("success", "rejected", "error").
func RecordUnlockAttempt(result string) { vaultUnlockAttempts.WithLabelValues(result).Inc() }

// RecordLockRequest counts a lock request ("ok", "partial").
func RecordLockRequest(result string) { vaultLockRequests.WithLabelValues(result).Inc() }

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
