package listener

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики портальной логики. Регистрируются один раз на процесс
// в дефолтном регистре Prometheus.
var (
	suppressedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portals",
		Name:      "suppressed_events_total",
		Help:      "Число событий среды, подавленных для защиты порталов.",
	}, []string{"event"})

	fillsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portals",
		Name:      "region_fills_total",
		Help:      "Число выполненных заливок регионов порталов.",
	}, []string{"material"})

	teleportRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "portals",
		Name:      "teleport_requests_total",
		Help:      "Число запросов на телепортацию через порталы.",
	})

	accessDenials = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "portals",
		Name:      "access_denials_total",
		Help:      "Число отказов в проходе через портал.",
	})
)
