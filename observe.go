package swapcycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/transport/api"
)

// Operation outcomes reported in the status label.
const (
	statusOK                = "ok"
	statusUnauthorized      = "unauthorized"
	statusForbidden         = "forbidden"
	statusValidation        = "validation"
	statusNotFound          = "not_found"
	statusConflict          = "conflict"
	statusInvalidTransition = "invalid_transition"
	statusMapDisabled       = "map_disabled"
	statusUnavailable       = "unavailable"
	statusBackend           = "backend"
	statusCanceled          = "canceled"
	statusTimeout           = "timeout"
	statusError             = "error"
)

// statusRules is checked in order; the first sentinel matched by errors.Is wins.
var statusRules = []struct {
	err    error
	status string
}{
	{context.Canceled, statusCanceled},
	{context.DeadlineExceeded, statusTimeout},
	{domain.ErrUnauthorized, statusUnauthorized},
	{domain.ErrForbidden, statusForbidden},
	{domain.ErrValidation, statusValidation},
	{domain.ErrNotFound, statusNotFound},
	{domain.ErrConflict, statusConflict},
	{domain.ErrInvalidTransition, statusInvalidTransition},
	{domain.ErrMapDisabled, statusMapDisabled},
	{domain.ErrUnavailable, statusUnavailable},
	{domain.ErrLocationUnavailable, statusUnavailable},
	{domain.ErrBackend, statusBackend},
}

// statusOf classifies an operation error into a low-cardinality label.
func statusOf(err error) string {
	if err == nil {
		return statusOK
	}
	for _, r := range statusRules {
		if errors.Is(err, r.err) {
			return r.status
		}
	}
	return statusError
}

// userFault reports statuses caused by the caller's input or session rather
// than by the marketplace being unhealthy.
func userFault(status string) bool {
	switch status {
	case statusUnauthorized, statusForbidden, statusValidation, statusNotFound,
		statusConflict, statusInvalidTransition, statusCanceled:
		return true
	}
	return false
}

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swapcycle",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Marketplace SDK calls by operation and outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "swapcycle",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "Marketplace SDK call latency in seconds.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse lets several clients share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("swapcycle: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("swapcycle: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and counts every public SDK call.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}
	m, err := newSDKMetrics(reg)
	if err != nil {
		return nil, err
	}
	o.metrics = m
	return o, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := statusOf(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}

	attrs := []any{"op", op, "status", status, "duration", dur}
	if err == nil {
		o.logger.Debug("swapcycle call", attrs...)
		return
	}
	attrs = append(attrs, "error", err)
	if apiErr, ok := api.IsAPIError(err); ok {
		attrs = append(attrs, "http_status", apiErr.Status)
	}
	if userFault(status) {
		o.logger.Info("swapcycle call rejected", attrs...)
		return
	}
	o.logger.Warn("swapcycle call failed", attrs...)
}
