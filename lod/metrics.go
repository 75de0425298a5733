package lod

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	categoryLabel = "category"
)

var (
	lodCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lod_cycles_total",
		Help: "The number of completed update cycles.",
	})

	lodNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lod_nodes",
		Help: "The number of nodes in the last built octree.",
	}, []string{
		categoryLabel,
	})

	lodNodesAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lod_nodes_added_total",
		Help: "The number of nodes that appeared between two cycles.",
	})

	lodNodesRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lod_nodes_removed_total",
		Help: "The number of nodes that disappeared between two cycles.",
	})

	lodBuildLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lod_build_latency",
		Help:    "The time to rebuild and walk the octree.",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
	})
)

func instrumentFrame(f Frame) {
	lodCycles.Inc()
	lodNodesAdded.Add(float64(f.Added))
	lodNodesRemoved.Add(float64(f.Removed))
	lodBuildLatency.Observe(f.BuildDuration.Seconds())

	for _, c := range []Category{Root, Internal, Leaf} {
		lodNodes.
			With(prometheus.Labels{categoryLabel: c.String()}).
			Set(float64(f.Count(c)))
	}
}
