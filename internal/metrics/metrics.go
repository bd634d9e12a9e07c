// Package metrics exposes roster activity as Prometheus metrics.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/mergington/activities/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "activities"

// Roster records roster mutations against a dedicated Prometheus registry.
// It satisfies registry.Recorder.
type Roster struct {
	prom         *prometheus.Registry
	changes      *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	participants *prometheus.GaugeVec
}

// NewRoster creates a Roster and registers its collectors, including the
// standard Go and process collectors.
func NewRoster() (*Roster, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("registering go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("registering process collector: %w", err)
	}

	r := &Roster{
		prom: reg,
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roster_changes_total",
			Help:      "Successful roster mutations by activity and action.",
		}, []string{"activity", "action"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roster_rejections_total",
			Help:      "Rejected roster mutations by action and reason.",
		}, []string{"action", "reason"}),
		participants: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "participants",
			Help:      "Current roster size per activity.",
		}, []string{"activity"}),
	}

	for _, c := range []prometheus.Collector{r.changes, r.rejections, r.participants} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering roster collector: %w", err)
		}
	}
	return r, nil
}

// Handler returns an http.Handler for the /metrics endpoint.
func (r *Roster) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Roster) PrometheusRegistry() *prometheus.Registry {
	return r.prom
}

func (r *Roster) ObserveRoster(activity string, participants int) {
	r.participants.With(prometheus.Labels{"activity": activity}).Set(float64(participants))
}

func (r *Roster) ObserveChange(activity string, action model.RosterAction) {
	r.changes.With(prometheus.Labels{"activity": activity, "action": string(action)}).Inc()
}

func (r *Roster) ObserveRejection(action model.RosterAction, reason string) {
	r.rejections.With(prometheus.Labels{"action": string(action), "reason": reason}).Inc()
}
