package socketshare

import "github.com/prometheus/client_golang/prometheus"

const (
	metricsNamespace = "socketshare"
	metricsSubsystem = "sockets"
)

const (
	labelFamily = "family"
	labelKind   = "kind"
	labelError  = "error_kind"
)

// Collector holds the Prometheus metrics a Library reports as a side
// effect of socket creation, destruction, and error signaling. Attach one
// with Library.WithMetrics; a Library with no Collector attached skips all
// recording.
type Collector struct {
	SocketsCreated   *prometheus.CounterVec
	SocketsDestroyed *prometheus.CounterVec
	SocketsActive    *prometheus.GaugeVec
	ErrorsSignaled   *prometheus.CounterVec
}

// NewCollector creates a Collector with its metrics registered against reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()
	reg.MustRegister(
		c.SocketsCreated,
		c.SocketsDestroyed,
		c.SocketsActive,
		c.ErrorsSignaled,
	)
	return c
}

func newMetrics() *Collector {
	familyKindLabels := []string{labelFamily, labelKind}

	return &Collector{
		SocketsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "created_total",
			Help:      "Total sockets created, by family and kind.",
		}, familyKindLabels),

		SocketsDestroyed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "destroyed_total",
			Help:      "Total sockets destroyed, by family and kind.",
		}, familyKindLabels),

		SocketsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "active",
			Help:      "Sockets currently held open by the library, by family and kind.",
		}, familyKindLabels),

		ErrorsSignaled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "errors_signaled_total",
			Help:      "Total errors delivered through the registered error callback, by ErrorKind.",
		}, []string{labelError}),
	}
}

func (c *Collector) IncSocketsCreated(family socketFamily, kind socketKind) {
	c.SocketsCreated.WithLabelValues(family.String(), kind.String()).Inc()
	c.SocketsActive.WithLabelValues(family.String(), kind.String()).Inc()
}

func (c *Collector) IncSocketsDestroyed(family socketFamily, kind socketKind) {
	c.SocketsDestroyed.WithLabelValues(family.String(), kind.String()).Inc()
	c.SocketsActive.WithLabelValues(family.String(), kind.String()).Dec()
}

func (c *Collector) incErrorsSignaled(kind ErrorKind) {
	c.ErrorsSignaled.WithLabelValues(kind.String()).Inc()
}
