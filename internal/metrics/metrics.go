// Package metrics keeps the service counters, published both through expvar and
// prometheus.
package metrics

import (
	"expvar"
	"runtime"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics can be used concurrently, expvar and prometheus are both atomic.
type Metrics struct {
	goroutines *expvar.Int
	requests   *expvar.Int
	errors     *expvar.Int
	panics     *expvar.Int

	httpRequests *prometheus.CounterVec
	httpPanics   prometheus.Counter
	inFlight     prometheus.Gauge
}

// New constructs the metrics and registers the prometheus collectors into reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		goroutines: expvarInt("goroutines"),
		requests:   expvarInt("requests"),
		errors:     expvarInt("errors"),
		panics:     expvarInt("panics"),

		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "http_requests_total",
			Help:      "Number of handled http requests.",
		}, []string{"method", "route", "status"}),
		httpPanics: f.NewCounter(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "http_panics_total",
			Help:      "Number of recovered panics.",
		}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "roster",
			Name:      "http_requests_in_flight",
			Help:      "Number of requests being served.",
		}),
	}
}

// expvar panics on duplicate names, reuse the published var instead.
func expvarInt(name string) *expvar.Int {
	if v, ok := expvar.Get(name).(*expvar.Int); ok {
		return v
	}
	return expvar.NewInt(name)
}

// Begin marks a request as in flight.
func (m *Metrics) Begin() {
	m.inFlight.Inc()
}

// AddRequest records a finished request and returns the total so far.
func (m *Metrics) AddRequest(method string, route string, status int) int64 {
	m.inFlight.Dec()
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()

	m.requests.Add(1)
	return m.requests.Value()
}

// AddGoroutines samples the number of goroutines.
func (m *Metrics) AddGoroutines() int64 {
	n := int64(runtime.NumGoroutine())
	m.goroutines.Set(n)
	return n
}

// AddError records a failed request.
func (m *Metrics) AddError() int64 {
	m.errors.Add(1)
	return m.errors.Value()
}

// AddPanic records a recovered panic.
func (m *Metrics) AddPanic() int64 {
	m.httpPanics.Inc()
	m.panics.Add(1)
	return m.panics.Value()
}
