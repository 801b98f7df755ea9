package service

import "github.com/prometheus/client_golang/prometheus"

var taxonomyResolved = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "recipe_taxonomy_resolved_total",
		Help: "Tag and ingredient descriptors resolved while saving recipes",
	},
	[]string{"kind", "outcome"}, // outcome: created | existing
)

func init() { prometheus.MustRegister(taxonomyResolved) }
