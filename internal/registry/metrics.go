package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	openConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tenant_connections_open",
		Help: "The number of cached live tenant connection handles",
	})

	connectionOpens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tenant_connection_opens_total",
		Help: "The number of tenant connections opened, including reinitializations",
	})

	databasesProvisioned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tenant_databases_provisioned_total",
		Help: "The number of tenant databases created by the registry",
	})
)
