// Package metrics defines the custom Prometheus metrics of the stylelab API.
// It is the single source of truth for metric names, labels and help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; request-level metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stylelab"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register and login attempts.
// Labels:
//   - action: "register" or "login"
//   - result: "success", "rejected" (4xx outcome) or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of register and login attempts, by outcome.",
	},
	[]string{"action", "result"},
)

// SessionsRevokedTotal counts logouts that revoked a live session.
var SessionsRevokedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Total number of sessions revoked through logout.",
	},
)

// AuthRejectedTotal counts requests refused by the auth middleware.
// Label:
//   - reason: "missing_token", "invalid_token" or "forbidden"
var AuthRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejected_total",
		Help:      "Total number of requests rejected by authentication or role checks.",
	},
	[]string{"reason"},
)

// ── Queue metrics ─────────────────────────────────────────────────────────────

// QueueJobsTotal counts bootstrap job runs.
// Labels:
//   - job: the job name (e.g. "site_settings")
//   - result: "ok" or "failed"
var QueueJobsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queue_jobs_total",
		Help:      "Total number of bootstrap jobs run, by result.",
	},
	[]string{"job", "result"},
)

// QueueJobDuration measures how long each bootstrap job takes.
var QueueJobDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "queue_job_duration_seconds",
		Help:      "Duration of bootstrap jobs.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"job"},
)
