// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monopoly_operations_total",
		Help: "Economy operations processed, labeled by outcome kind",
	}, []string{"op", "outcome"})

	storeConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monopoly_store_conflicts_total",
		Help: "Units of work aborted by a concurrent modification",
	})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monopoly_notifications_total",
		Help: "Change events handed to notifier sinks",
	}, []string{"sink", "result"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "monopoly_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "route", "status"})
)

// Operation records the outcome of one economy operation.
func Operation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	operationsTotal.WithLabelValues(op, outcome).Inc()
}

func Conflict() {
	storeConflicts.Inc()
}

func Notification(sink string, err error) {
	result := "delivered"
	if err != nil {
		result = "failed"
	}
	notificationsTotal.WithLabelValues(sink, result).Inc()
}

func Dropped() {
	notificationsTotal.WithLabelValues("dispatcher", "dropped").Inc()
}

// Middleware times every request by its route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = apperr.Status(err)
			}
		}
		httpDuration.WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the Prometheus registry through fiber.
func Handler() fiber.Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		h(c.Context())
		return nil
	}
}
