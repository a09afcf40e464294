package promclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "orderbook_aggregator"

// Metrics is registered on its own registry so tests can create as many as
// they need.
type Metrics struct {
	registry *prometheus.Registry

	ActiveWatchSessions prometheus.Gauge
	AdapterErrors       *prometheus.CounterVec
	CrossedBooks        *prometheus.CounterVec
	Resyncs             *prometheus.CounterVec
	SummariesSent       prometheus.Counter
	SummariesSuperseded prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ActiveWatchSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_watch_sessions",
			Help:      "Number of running WatchSummary sessions.",
		}),
		AdapterErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_errors_total",
			Help:      "Exchange messages that could not be normalized.",
		}, []string{"exchange"}),
		CrossedBooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crossed_books_total",
			Help:      "Transitions of a session book into the crossed state.",
		}, []string{"symbol"}),
		Resyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resyncs_total",
			Help:      "Snapshots re-fetched after a sequence gap.",
		}, []string{"exchange"}),
		SummariesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_sent_total",
			Help:      "Summaries delivered to clients.",
		}),
		SummariesSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_superseded_total",
			Help:      "Summaries dropped because a newer one replaced them before sending.",
		}),
	}

	m.registry.MustRegister(
		m.ActiveWatchSessions,
		m.AdapterErrors,
		m.CrossedBooks,
		m.Resyncs,
		m.SummariesSent,
		m.SummariesSuperseded,
		collectors.NewGoCollector(),
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartPromClientServer serves /metrics on addr until ctx is done.
func StartPromClientServer(ctx context.Context, addr string, m *Metrics, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("prometheus server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
