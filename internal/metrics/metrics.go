// Package metrics объявляет метрики Prometheus ядра оформления покупки.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы попытки оформления для метки outcome.
const (
	OutcomeSuccess = "success"
	OutcomeBlocked = "blocked"
	OutcomeAborted = "aborted"
)

var (
	// CheckoutAttempts считает попытки оформления по исходам.
	CheckoutAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Total checkout attempts by outcome.",
	}, []string{"outcome"})

	// CheckoutDuration измеряет длительность попытки оформления.
	CheckoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Checkout attempt duration in seconds.",
		Buckets: prometheus.DefBuckets,
	})

	// OrphanRecoveries считает восстановления осиротевших учётных записей.
	OrphanRecoveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orphan_recoveries_total",
		Help: "Total checkouts that reattached an orphaned identity.",
	})
)
