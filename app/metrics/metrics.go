package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts records login attempts by result (success|invalid_credentials|error).
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onlearn_auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// OTPRequests counts OTP issuance by outcome (sent|throttled|delivery_failed).
	OTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onlearn_auth_otp_requests_total",
			Help: "Total number of OTP issuance requests",
		},
		[]string{"result"},
	)

	// TokenRefreshes counts refresh attempts by outcome (success|rejected|fingerprint_mismatch).
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onlearn_auth_token_refreshes_total",
			Help: "Total number of refresh token exchanges",
		},
		[]string{"result"},
	)

	SessionsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onlearn_auth_sessions_purged_total",
			Help: "Expired refresh token records deleted by the purge job",
		},
	)

	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onlearn_auth_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
