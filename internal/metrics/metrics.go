package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	ConversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "convertbot_conversions_total",
		Help: "Conversions by format family and outcome.",
	}, []string{"family", "status"})

	ConversionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "convertbot_conversion_duration_seconds",
		Help:    "Wall time of conversions by format family.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"family"})

	PaymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "convertbot_payments_total",
		Help: "Payment requests by outcome.",
	}, []string{"outcome"})

	QuotaRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "convertbot_quota_rejections_total",
		Help: "Conversions refused by the quota gate.",
	}, []string{"reason"})

	BroadcastMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "convertbot_broadcast_messages_total",
		Help: "Broadcast deliveries by result.",
	}, []string{"result"})
)

// ObserveConversion records one finished conversion.
func ObserveConversion(family, status string, elapsed time.Duration) {
	ConversionsTotal.WithLabelValues(family, status).Inc()
	ConversionDuration.WithLabelValues(family).Observe(elapsed.Seconds())
}

// Serve exposes /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logrus.WithField("addr", addr).Info("metrics listener started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.WithError(err).Error("metrics listener failed")
	}
}
