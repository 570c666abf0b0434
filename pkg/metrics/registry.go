// Package metrics provides Prometheus-backed observability for CallStream.
//
// Metrics are opt-in: nothing is collected until InitRegistry is called.
// Components receive metrics through small interfaces (CallMetrics) and must
// tolerate nil implementations, so a disabled deployment pays zero overhead.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registryMu sync.RWMutex
	registry   *prometheus.Registry
)

// InitRegistry creates the process-wide Prometheus registry and registers
// the standard Go runtime and process collectors.
//
// Call this exactly once, before constructing any component that collects
// metrics. Calling it again is a no-op that returns the existing registry.
func InitRegistry() *prometheus.Registry {
	registryMu.Lock()
	defer registryMu.Unlock()

	if registry != nil {
		return registry
	}

	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return registry
}

// IsEnabled reports whether InitRegistry has been called.
//
// Metric constructors return nil when this is false, and consumers treat a
// nil metrics value as "collection disabled".
func IsEnabled() bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry != nil
}

// GetRegistry returns the process-wide registry, or nil if metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry
}

// Handler returns an http.Handler that serves the registry in the Prometheus
// text exposition format. It serves an empty page when metrics are disabled
// so the route can be mounted unconditionally.
func Handler() http.Handler {
	registryMu.RLock()
	reg := registry
	registryMu.RUnlock()

	if reg == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	}

	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// reset clears the registry. Test helper only.
func reset() {
	registryMu.Lock()
	registry = nil
	registryMu.Unlock()
}
