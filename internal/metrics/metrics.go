package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PackagesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_packages_created_total",
		Help: "Total number of packages successfully created.",
	})

	PackagesAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_packages_accepted_total",
		Help: "Total number of packages accepted by drivers.",
	})

	DeliveriesFinishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_deliveries_finished_total",
		Help: "Total number of deliveries that reached a terminal status.",
	},
		[]string{"outcome"},
	)

	EarningsCreditedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_earnings_credited_total",
		Help: "Sum of package prices credited to driver earnings.",
	})

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_http_requests_total",
		Help: "Total number of handled HTTP requests.",
	},
		[]string{"handler", "code"},
	)

	OutboxPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_outbox_published_total",
		Help: "Outbox tasks processed by the publisher, by result.",
	},
		[]string{"result"},
	)

	PackageCacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "courier_package_cache_items",
		Help: "Current number of terminal packages held in the package cache.",
	})
)
