package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type promCounter struct {
	c     prometheus.Counter
	value atomic.Int64
}

// PrometheusCollector registers one counter per name on first use.
type PrometheusCollector struct {
	namespace string
	registry  *prometheus.Registry
	counters  sync.Map // name -> *promCounter
	mu        sync.Mutex
}

func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		namespace: namespace,
		registry:  prometheus.NewRegistry(),
	}
}

func (pc *PrometheusCollector) IncrementCounter(name string) {
	c := pc.counter(name)
	c.c.Inc()
	c.value.Add(1)
}

func (pc *PrometheusCollector) GetCounter(name string) int64 {
	if v, ok := pc.counters.Load(name); ok {
		return v.(*promCounter).value.Load()
	}
	return 0
}

// Handler exposes the registry in the Prometheus text format
func (pc *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(pc.registry, promhttp.HandlerOpts{})
}

func (pc *PrometheusCollector) counter(name string) *promCounter {
	if v, ok := pc.counters.Load(name); ok {
		return v.(*promCounter)
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	if v, ok := pc.counters.Load(name); ok {
		return v.(*promCounter)
	}

	c := &promCounter{
		c: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: pc.namespace,
			Name:      name,
			Help:      "Total count of " + name,
		}),
	}
	pc.registry.MustRegister(c.c)
	pc.counters.Store(name, c)
	return c
}
