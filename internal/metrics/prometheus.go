package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements Collector on a private registry.
type Prometheus struct {
	probeAttempts     *prometheus.CounterVec
	resolveDuration   *prometheus.HistogramVec
	readyDuration     prometheus.Histogram
	lifecycleOutcomes *prometheus.CounterVec

	registry *prometheus.Registry
}

var launchBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60}

func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = "todoerr"
	}

	p := &Prometheus{
		registry: prometheus.NewRegistry(),
	}

	p.probeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_attempts_total",
			Help:      "Total number of backend readiness attempts",
		},
		[]string{"result"},
	)

	p.resolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "endpoint_resolve_duration_seconds",
			Help:      "Time from launch until the backend endpoint was resolved",
			Buckets:   launchBuckets,
		},
		[]string{"mode", "ok"},
	)

	p.readyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_ready_duration_seconds",
			Help:      "Time from launch until the backend answered",
			Buckets:   launchBuckets,
		},
	)

	p.lifecycleOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_outcomes_total",
			Help:      "Total number of launch lifecycles by terminal state",
		},
		[]string{"outcome"},
	)

	p.registry.MustRegister(
		p.probeAttempts,
		p.resolveDuration,
		p.readyDuration,
		p.lifecycleOutcomes,
	)
	return p
}

func (p *Prometheus) ProbeAttempt(result string) {
	p.probeAttempts.WithLabelValues(result).Inc()
}

func (p *Prometheus) EndpointResolved(mode string, d time.Duration, ok bool) {
	p.resolveDuration.WithLabelValues(mode, strconv.FormatBool(ok)).Observe(d.Seconds())
}

func (p *Prometheus) BackendReady(d time.Duration) {
	p.readyDuration.Observe(d.Seconds())
}

func (p *Prometheus) LifecycleOutcome(outcome string) {
	p.lifecycleOutcomes.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Serve exposes h on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, ln, h)
}

func serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	slog.DebugContext(ctx, "metrics endpoint", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
