package transpiler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transpilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "angles_transpiles_total",
			Help: "Total number of template transpiles",
		},
		[]string{"status"},
	)

	transpileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "angles_transpile_duration_seconds",
			Help:    "Template transpile duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	tagsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "angles_tags_rendered_total",
			Help: "Custom tags rendered, by mapper kind",
		},
		[]string{"kind"},
	)

	conditionalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "angles_conditional_attributes_total",
			Help: "Conditional attributes rewritten",
		},
	)
)

func observe(err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	transpilesTotal.WithLabelValues(status).Inc()
	transpileDuration.Observe(d.Seconds())
}
